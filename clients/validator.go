package clients

import (
	"context"

	"github.com/pkg/errors"
)

// Validator answers the claimed-client question: does this client exist, is
// it active, and may it receive a redirect at this URI. It runs both at
// authorize time (before any consent is shown) and again at exchange time,
// so a forged exchange cannot substitute a redirect URI the user never
// approved.
type Validator struct {
	repo Repo
}

func NewValidator(repo Repo) *Validator {
	return &Validator{repo: repo}
}

// Validate is read-only. Store failures are wrapped and must not be
// conflated with a definitive UnknownClient verdict.
func (v *Validator) Validate(ctx context.Context, clientID, redirectURI string) (*Client, error) {
	client, err := v.repo.Get(ctx, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Validator.Validate] client lookup")
	}
	if client == nil {
		return nil, ErrUnknownClient
	}
	if !client.Active {
		return nil, ErrInactiveClient
	}
	if !client.AllowsRedirectURI(redirectURI) {
		return nil, ErrRedirectMismatch
	}
	return client, nil
}

// ValidateCredentials authenticates a server-to-server caller. It reports
// the same error for a missing client and a wrong secret so the response
// does not confirm client existence.
func (v *Validator) ValidateCredentials(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	client, err := v.repo.Get(ctx, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Validator.ValidateCredentials] client lookup")
	}
	if client == nil || !client.Active || !client.VerifySecret(clientSecret) {
		return nil, ErrInvalidClientCredentials
	}
	return client, nil
}

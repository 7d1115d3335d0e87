// Package auth composes the client registry, the authorization-code store
// and the token manager into the OAuth2 authorization-code flow: validate
// the authorize request, mint a code on approval, exchange the code for an
// access/refresh pair, and rotate or revoke pairs afterwards.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/authcode"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/internal/security"
	"github.com/zenwallet/authbroker/oauthmodel"
	"github.com/zenwallet/authbroker/token"
)

const codeByteLength = 32

// Service is a stateless request handler; every operation round-trips to
// the injected stores and shares nothing in process.
type Service struct {
	validator  *clients.Validator
	codes      authcode.Repo
	tokens     *token.Manager
	codeExpiry time.Duration
	nowFunc    func() time.Time
}

type ServiceOption func(*Service)

// WithCodeExpiry overrides the default ten-minute code lifetime.
func WithCodeExpiry(expiry time.Duration) ServiceOption {
	return func(s *Service) {
		if expiry > 0 {
			s.codeExpiry = expiry
		}
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(validator *clients.Validator, codes authcode.Repo, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if validator == nil {
		return nil, errors.New("[auth.NewService] client validator is required")
	}
	if codes == nil {
		return nil, errors.New("[auth.NewService] code repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[auth.NewService] token manager is required")
	}
	s := &Service{
		validator:  validator,
		codes:      codes,
		tokens:     tokens,
		codeExpiry: authcode.DefaultExpiry,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ValidateAuthorizeRequest runs the checks that must pass before any
// consent is shown or any redirect issued: known active client, verbatim
// redirect-URI match, supported response type, scopes within the client's
// grant. Failures here are terminal and must be reported to the user
// directly, never via the unvalidated redirect URI.
func (s *Service) ValidateAuthorizeRequest(ctx context.Context, params *oauthmodel.AuthorizationParameters) (*clients.Client, error) {
	client, err := s.validator.Validate(ctx, params.ClientID, params.RedirectURI)
	if err != nil {
		return nil, err
	}
	if params.ResponseType != oauthmodel.ResponseTypeCode {
		return nil, oauthmodel.ErrUnsupportedResponseType
	}
	if err := client.ValidateScopes(params.Scope); err != nil {
		return nil, err
	}
	return client, nil
}

// IssuedCode is handed back to the authorize handler for the success
// redirect.
type IssuedCode struct {
	Code      string
	ExpiresAt time.Time
}

// IssueCode mints a fresh, never-reused random code binding the user's
// approval to the client and the exact redirect URI in play.
func (s *Service) IssueCode(ctx context.Context, clientID, userID, redirectURI, scope string) (*IssuedCode, error) {
	value, err := security.GenerateToken(codeByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.IssueCode] code generation")
	}

	now := s.nowFunc()
	code := &authcode.Code{
		Code:        value,
		ClientID:    clientID,
		UserID:      userID,
		RedirectURI: redirectURI,
		Scope:       scope,
		ExpiresAt:   now.Add(s.codeExpiry),
		CreatedAt:   now,
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return nil, errors.Wrap(err, "[Service.IssueCode] persist code")
	}
	return &IssuedCode{Code: value, ExpiresAt: code.ExpiresAt}, nil
}

// Exchange is the trust boundary of the whole flow. The code travelled
// through the user's browser, so possession alone must not yield a
// credential: the caller also proves the client secret, and the redirect
// URI is checked twice, against the registry allow-list and against the
// exact URI bound at issuance (inside the conditional consume). Codes are
// spent exactly once; of concurrent exchanges of the same code at most one
// succeeds.
func (s *Service) Exchange(ctx context.Context, code, clientID, clientSecret, redirectURI string) (*oauthmodel.TokenResponse, error) {
	client, err := s.validator.ValidateCredentials(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsRedirectURI(redirectURI) {
		return nil, clients.ErrRedirectMismatch
	}

	grant, err := s.codes.Consume(ctx, code, clientID, redirectURI, s.nowFunc())
	if err != nil {
		if errors.Is(err, authcode.ErrGrantNotFound) || errors.Is(err, authcode.ErrGrantExpired) {
			return nil, err
		}
		return nil, errors.Wrap(err, "[Service.Exchange] consume code")
	}

	pair, err := s.tokens.IssuePair(ctx, grant.ClientID, grant.UserID, grant.Scope)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Exchange] issue pair")
	}
	return s.tokenResponse(pair), nil
}

// Refresh rotates an access/refresh pair; the presented refresh token never
// survives a successful call.
func (s *Service) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*oauthmodel.TokenResponse, error) {
	pair, err := s.tokens.Refresh(ctx, refreshToken, clientID, clientSecret)
	if err != nil {
		return nil, err
	}
	return s.tokenResponse(pair), nil
}

// Introspect validates an access token on behalf of a resource server.
func (s *Service) Introspect(ctx context.Context, accessToken string) (*token.Introspection, error) {
	return s.tokens.Validate(ctx, accessToken)
}

// Revoke invalidates the pair holding accessToken. Idempotent.
func (s *Service) Revoke(ctx context.Context, accessToken string) (bool, error) {
	return s.tokens.Revoke(ctx, accessToken)
}

func (s *Service) tokenResponse(pair *token.Pair) *oauthmodel.TokenResponse {
	return &oauthmodel.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.tokens.AccessTokenExpiry().Seconds()),
		Scope:        pair.Scope,
		UserID:       pair.UserID,
	}
}

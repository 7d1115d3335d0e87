package token

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/internal/security"
)

const tokenByteLength = 32

// Manager issues, validates, rotates and revokes access/refresh pairs. It
// is stateless; all durable state lives in the injected Repo.
type Manager struct {
	repo              Repo
	clientValidator   *clients.Validator
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

// WithAccessTokenExpiry overrides the default one-hour access lifetime.
func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		if expiry > 0 {
			m.accessTokenExpiry = expiry
		}
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, clientValidator *clients.Validator, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[token.NewManager] repo is required")
	}
	if clientValidator == nil {
		return nil, errors.New("[token.NewManager] client validator is required")
	}
	m := &Manager{
		repo:              repo,
		clientValidator:   clientValidator,
		accessTokenExpiry: DefaultAccessTokenExpiry,
		nowFunc:           time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// AccessTokenExpiry reports the configured access-token lifetime.
func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// IssuePair mints a fresh pair bound to user, client and scope and persists
// it unrevoked.
func (m *Manager) IssuePair(ctx context.Context, clientID, userID, scope string) (*Pair, error) {
	accessToken, err := security.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] access token generation")
	}
	refreshToken, err := security.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] refresh token generation")
	}

	now := m.nowFunc()
	pair := &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ClientID:     clientID,
		UserID:       userID,
		Scope:        scope,
		ExpiresAt:    now.Add(m.accessTokenExpiry),
		CreatedAt:    now,
	}
	if err := m.repo.Create(ctx, pair); err != nil {
		return nil, errors.Wrap(err, "[Manager.IssuePair] persist pair")
	}
	return pair, nil
}

// Validate answers a bearer check for a resource call. Read-only and
// side-effect free; it runs on every request, so it is a single store
// lookup. An invalid/expired verdict is only produced when the store
// positively confirms it; store failures propagate as errors.
func (m *Manager) Validate(ctx context.Context, accessToken string) (*Introspection, error) {
	if accessToken == "" {
		return nil, ErrAccessTokenInvalid
	}
	pair, err := m.repo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Validate] lookup")
	}
	if pair == nil || pair.RevokedAt != nil {
		return nil, ErrAccessTokenInvalid
	}
	if !m.nowFunc().Before(pair.ExpiresAt) {
		return nil, ErrAccessTokenExpired
	}
	return &Introspection{
		UserID:    pair.UserID,
		ClientID:  pair.ClientID,
		Scope:     pair.Scope,
		ExpiresAt: pair.ExpiresAt,
	}, nil
}

// Refresh rotates a pair: the presented refresh token is always invalidated
// by a successful call, and the replacement is bound to the same user,
// client and scope. Rotation limits a stolen refresh token to one use.
func (m *Manager) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*Pair, error) {
	if _, err := m.clientValidator.ValidateCredentials(ctx, clientID, clientSecret); err != nil {
		return nil, err
	}

	current, err := m.repo.GetByRefreshToken(ctx, refreshToken, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] lookup")
	}
	if current == nil || current.RevokedAt != nil {
		return nil, ErrRefreshTokenInvalid
	}

	accessToken, err := security.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] access token generation")
	}
	newRefreshToken, err := security.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] refresh token generation")
	}

	now := m.nowFunc()
	next := &Pair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ClientID:     current.ClientID,
		UserID:       current.UserID,
		Scope:        current.Scope,
		ExpiresAt:    now.Add(m.accessTokenExpiry),
		CreatedAt:    now,
	}

	// The conditional revoke inside Rotate decides the race: of concurrent
	// refreshes presenting the same token, one commits, the rest land here
	// with ErrRefreshTokenInvalid.
	if err := m.repo.Rotate(ctx, refreshToken, clientID, now, next); err != nil {
		if errors.Is(err, ErrRefreshTokenInvalid) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, errors.Wrap(err, "[Manager.Refresh] rotate")
	}
	return next, nil
}

// Revoke marks the pair holding accessToken revoked. Idempotent: revoking
// an already-revoked or unknown token reports false without error.
func (m *Manager) Revoke(ctx context.Context, accessToken string) (bool, error) {
	if accessToken == "" {
		return false, nil
	}
	revoked, err := m.repo.RevokeByAccessToken(ctx, accessToken, m.nowFunc())
	if err != nil {
		return false, errors.Wrap(err, "[Manager.Revoke] revoke")
	}
	return revoked, nil
}

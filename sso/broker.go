package sso

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zenwallet/authbroker/internal/security"
	"github.com/zenwallet/authbroker/users"
)

const (
	// DefaultExpiry bounds how long a ticket may sit in a redirect before
	// the target application redeems it.
	DefaultExpiry = 5 * time.Minute

	tokenByteLength = 32
)

// IssueOptions tunes a single issuance. The zero value issues a plain
// first-party ticket with the default expiry.
type IssueOptions struct {
	Expiry       time.Duration // 0 means DefaultExpiry
	RedirectPath string
	Tier         string
	Scope        string // only for TargetExternal bridging
	ClientID     string // only for TargetExternal bridging
	Extension    *Extension
}

// IssuedToken is what the issuing application places in the redirect URL.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redemption is returned to the target application so it can bootstrap a
// local session and resume the intended navigation.
type Redemption struct {
	UserID       string      `json:"user_id"`
	SourceApp    string      `json:"source_app"`
	TargetApp    string      `json:"target_app"`
	RedirectPath string      `json:"redirect_path,omitempty"`
	Tier         string      `json:"tier,omitempty"`
	Scope        string      `json:"scope,omitempty"`
	ClientID     string      `json:"client_id,omitempty"`
	Extension    *Extension  `json:"extension,omitempty"`
	User         *users.User `json:"user,omitempty"`
}

// Broker issues and redeems tickets. It holds no mutable state of its own;
// everything durable lives in the injected Repo.
type Broker struct {
	repo      Repo
	directory users.Directory
	nowFunc   func() time.Time
	logger    zerolog.Logger
}

type BrokerOption func(*Broker)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) BrokerOption {
	return func(b *Broker) {
		b.nowFunc = now
	}
}

// WithLogger sets the logger used for non-fatal redemption events.
func WithLogger(logger zerolog.Logger) BrokerOption {
	return func(b *Broker) {
		b.logger = logger
	}
}

func NewBroker(repo Repo, directory users.Directory, options ...BrokerOption) (*Broker, error) {
	if repo == nil {
		return nil, errors.New("[NewBroker] repo is required")
	}
	if directory == nil {
		return nil, errors.New("[NewBroker] user directory is required")
	}
	b := &Broker{
		repo:      repo,
		directory: directory,
		nowFunc:   time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b, nil
}

// Issue mints a fresh single-use ticket for userID travelling from sourceApp
// to targetApp and persists it unused.
func (b *Broker) Issue(ctx context.Context, userID, sourceApp, targetApp string, opts IssueOptions) (*IssuedToken, error) {
	if userID == "" || sourceApp == "" || targetApp == "" {
		return nil, errors.New("[Broker.Issue] userID, sourceApp and targetApp are required")
	}

	value, err := security.GenerateToken(tokenByteLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Broker.Issue] token generation")
	}

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	now := b.nowFunc()
	ticket := &Token{
		Token:        value,
		UserID:       userID,
		SourceApp:    sourceApp,
		TargetApp:    targetApp,
		RedirectPath: opts.RedirectPath,
		Tier:         opts.Tier,
		Scope:        opts.Scope,
		ClientID:     opts.ClientID,
		Extension:    opts.Extension,
		ExpiresAt:    now.Add(expiry),
		CreatedAt:    now,
	}

	if err := b.repo.Create(ctx, ticket); err != nil {
		return nil, errors.Wrap(err, "[Broker.Issue] persist ticket")
	}

	return &IssuedToken{Token: value, ExpiresAt: ticket.ExpiresAt}, nil
}

// Redeem spends a ticket exactly once. Of any number of concurrent calls
// with the same token, at most one receives a Redemption; the rest get
// ErrTokenNotFound. The bound user's directory profile is attached when the
// directory can resolve it, so the target can bootstrap a session without a
// second round-trip.
func (b *Broker) Redeem(ctx context.Context, token string) (*Redemption, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	ticket, err := b.repo.Consume(ctx, token, b.nowFunc())
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired) {
			return nil, err
		}
		return nil, errors.Wrap(err, "[Broker.Redeem] consume ticket")
	}

	redemption := &Redemption{
		UserID:       ticket.UserID,
		SourceApp:    ticket.SourceApp,
		TargetApp:    ticket.TargetApp,
		RedirectPath: ticket.RedirectPath,
		Tier:         ticket.Tier,
		Scope:        ticket.Scope,
		ClientID:     ticket.ClientID,
		Extension:    ticket.Extension,
	}

	// The ticket is already spent; failing the whole redemption here would
	// lose the bound user id for good. Profile enrichment is best-effort.
	user, err := b.directory.GetByID(ctx, ticket.UserID)
	if err != nil {
		b.logger.Warn().Err(err).
			Str("user_id", ticket.UserID).
			Msg("directory lookup failed, returning redemption without profile")
		return redemption, nil
	}
	redemption.User = user

	return redemption, nil
}

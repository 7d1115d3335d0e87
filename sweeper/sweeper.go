// Package sweeper is the housekeeping loop that purges expired tokens and
// codes from the store. It is not correctness-critical: every validation
// path re-checks expiry itself, so a missed sweep only wastes storage.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/zenwallet/authbroker/authcode"
	"github.com/zenwallet/authbroker/sso"
	"github.com/zenwallet/authbroker/token"
)

// DefaultInterval is how often the sweep runs unless configured otherwise.
const DefaultInterval = 15 * time.Minute

// Sweeper periodically deletes expired SSO tickets and authorization codes
// (worthless after expiry regardless of use state) and expired,
// never-revoked access-token pairs. Revoked-but-unexpired pairs are kept
// for audit until natural expiry; the stores enforce that predicate.
type Sweeper struct {
	ssoTokens sso.Repo
	codes     authcode.Repo
	pairs     token.Repo
	interval  time.Duration
	nowFunc   func() time.Time
	logger    zerolog.Logger
}

type Option func(*Sweeper)

// WithInterval overrides the sweep cadence.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.nowFunc = now
	}
}

func New(ssoTokens sso.Repo, codes authcode.Repo, pairs token.Repo, logger zerolog.Logger, options ...Option) *Sweeper {
	s := &Sweeper{
		ssoTokens: ssoTokens,
		codes:     codes,
		pairs:     pairs,
		interval:  DefaultInterval,
		nowFunc:   time.Now,
		logger:    logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run sweeps on a ticker until ctx is cancelled. Store errors are logged
// and the loop keeps going; the next pass retries.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and reports what was removed.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.nowFunc()

	tickets, err := s.ssoTokens.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Err(err).Msg("sweep sso tokens")
	}
	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Err(err).Msg("sweep authorization codes")
	}
	pairs, err := s.pairs.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Err(err).Msg("sweep token pairs")
	}

	if tickets+codes+pairs > 0 {
		s.logger.Info().
			Int64("sso_tokens", tickets).
			Int64("codes", codes).
			Int64("pairs", pairs).
			Msg("expired credentials swept")
	}
}

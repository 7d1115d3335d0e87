package sso

import (
	"context"
	"time"
)

// Repo persists tickets. Implementations must make Consume a single
// conditional mutation: a plain read followed by a separate write reopens
// the double-redemption race.
type Repo interface {
	Create(ctx context.Context, token *Token) error

	// Consume atomically marks the ticket used and returns it. The mutation
	// must only apply while the used flag is clear and the expiry has not
	// passed, so at most one of any number of concurrent calls succeeds.
	// Returns ErrTokenNotFound for an absent or already-used ticket and
	// ErrTokenExpired for one the store positively confirms as expired.
	Consume(ctx context.Context, token string, now time.Time) (*Token, error)

	// DeleteExpired removes tickets whose expiry precedes before, used or
	// not, and reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

package token

import (
	"context"
	"time"
)

// Repo persists access/refresh pairs. Rotation is the one operation that
// spans two rows; implementations run it in a single transaction so a crash
// mid-refresh leaves the old pair valid rather than the user with nothing.
type Repo interface {
	Create(ctx context.Context, pair *Pair) error

	// GetByAccessToken returns the pair, or (nil, nil) when no such access
	// token exists. Revoked and expired pairs are still returned; verdicts
	// belong to the manager.
	GetByAccessToken(ctx context.Context, accessToken string) (*Pair, error)

	// GetByRefreshToken is GetByAccessToken keyed by the refresh string and
	// scoped to clientID.
	GetByRefreshToken(ctx context.Context, refreshToken, clientID string) (*Pair, error)

	// Rotate atomically revokes the pair holding refreshToken (iff it is
	// still unrevoked and belongs to clientID) and persists newPair, in one
	// transaction. Of concurrent rotations presenting the same refresh
	// token exactly one succeeds; the rest get ErrRefreshTokenInvalid and
	// no new pair is committed for them.
	Rotate(ctx context.Context, refreshToken, clientID string, now time.Time, newPair *Pair) error

	// RevokeByAccessToken marks the pair revoked. Idempotent: re-revoking
	// reports false with no error.
	RevokeByAccessToken(ctx context.Context, accessToken string, now time.Time) (bool, error)

	// DeleteExpired removes pairs past expiry that were never revoked.
	// Revoked-but-unexpired rows are retained for audit until natural
	// expiry.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

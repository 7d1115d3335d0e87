package authcode

import (
	"context"
	"time"
)

// Repo persists authorization codes with the same single-use discipline as
// SSO tickets, plus a binding check: the consume predicate includes the
// client id and redirect URI fixed at issuance. A mismatched exchange
// attempt therefore fails without spending the code.
type Repo interface {
	Create(ctx context.Context, code *Code) error

	// Consume atomically spends the code iff it belongs to clientID, is
	// bound to redirectURI, is unused, and is unexpired: one conditional
	// mutation, at most one concurrent winner. Returns ErrGrantNotFound for
	// absent/used/mismatched codes and ErrGrantExpired when the store
	// positively confirms expiry of an otherwise-matching code.
	Consume(ctx context.Context, code, clientID, redirectURI string, now time.Time) (*Code, error)

	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

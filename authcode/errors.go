package authcode

import "errors"

var (
	// ErrGrantNotFound covers an absent code, an already-spent one, and a
	// code bound to a different client or redirect URI. The conditional
	// consume cannot tell these apart, and collapsing them denies an
	// attacker a probe for which part of a forged exchange was wrong.
	ErrGrantNotFound = errors.New("invalid or used authorization grant")

	// ErrGrantExpired is the definitive past-expiry verdict.
	ErrGrantExpired = errors.New("authorization grant expired")
)

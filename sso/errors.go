package sso

import "errors"

var (
	// ErrTokenNotFound covers both an unknown token and an already-used one:
	// the store only surfaces tickets whose used flag is still clear, so the
	// two cases are indistinguishable by design. Callers treat it as a
	// possible replay and never retry automatically.
	ErrTokenNotFound = errors.New("invalid or used sso token")

	// ErrTokenExpired is a definitive verdict: the store found the ticket
	// and its expiry has passed. The row is left for the sweeper.
	ErrTokenExpired = errors.New("sso token expired")
)

// Package authcode models the short-lived, single-use grant artifact of the
// authorization-code flow. Issuance and exchange policy live in the auth
// package; this package owns the row shape and the store contract.
package authcode

import "time"

// DefaultExpiry is how long a code stays exchangeable after issuance.
const DefaultExpiry = 10 * time.Minute

// Code binds a user's approval to one client and one redirect URI. It is
// spendable iff UsedAt is nil and the expiry has not passed; exchange must
// present the exact redirect URI bound here.
type Code struct {
	Code        string     `json:"code"`
	ClientID    string     `json:"client_id"`
	UserID      string     `json:"user_id"`
	RedirectURI string     `json:"redirect_uri"`
	Scope       string     `json:"scope"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

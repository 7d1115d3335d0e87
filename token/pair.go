// Package token manages the bearer credentials handed to third parties
// after a successful code exchange: opaque access/refresh pairs validated
// against the store on every resource call. Keeping validation on the store
// (rather than a signed token) is what lets revocation take effect before
// natural expiry.
package token

import "time"

// DefaultAccessTokenExpiry applies when the issuer does not choose a
// lifetime.
const DefaultAccessTokenExpiry = time.Hour

// Pair is one logical delegated session: an access token and the refresh
// token that rotates it. Both strings are opaque. A pair is live iff
// RevokedAt is nil; the access token is additionally bounded by ExpiresAt.
type Pair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ClientID     string     `json:"client_id"`
	UserID       string     `json:"user_id"`
	Scope        string     `json:"scope"`
	ExpiresAt    time.Time  `json:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Introspection is the read-only answer to "is this access token good, and
// for whom".
type Introspection struct {
	UserID    string    `json:"user_id"`
	ClientID  string    `json:"client_id"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
}

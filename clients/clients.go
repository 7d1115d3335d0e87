// Package clients holds the registry of applications allowed to talk to the
// broker: both first-party apps bridging SSO tokens and third-party
// integrations using the authorization-code grant.
package clients

import (
	"github.com/zenwallet/authbroker/scopes"
	"golang.org/x/crypto/bcrypt"
)

// Client is a registered integration. The secret is persisted only as a
// bcrypt hash and is never returned to a browser; it is verified solely
// during server-to-server code exchange and refresh.
type Client struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	SecretHash   string   `json:"-"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
	Active       bool     `json:"active"`
	LogoURL      string   `json:"logo_url,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`
}

// HashSecret hashes a client secret for storage.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifySecret checks a presented secret against the stored hash. bcrypt's
// comparison is constant-time with respect to the presented value.
func (c *Client) VerifySecret(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// AllowsRedirectURI reports whether uri exactly matches an allow-list entry.
// Matching is verbatim: no prefix, wildcard, or trailing-slash tolerance.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}

// HasScope checks if the client is permitted a specific scope.
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks that every requested scope is allowed for this
// client. Whether a scope is in the global registry is a separate question;
// unrecognized scopes flow through and get flagged at the consent surface.
func (c *Client) ValidateScopes(requested string) error {
	for _, scope := range scopes.Split(requested) {
		if !c.HasScope(scope) {
			return ErrScopeNotAllowed
		}
	}
	return nil
}

// Package security produces the opaque credential strings the broker hands
// out: SSO tokens, authorization codes, and access/refresh token pairs.
// Every value comes from crypto/rand; possession of one of these strings is
// authorization, so their entropy is non-negotiable.
package security

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultTokenBytes is the entropy used for tokens when callers have no
// reason to choose otherwise. 32 bytes encodes to a 43-character string.
const DefaultTokenBytes = 32

// GenerateToken returns a URL-safe opaque string carrying byteLen bytes of
// cryptographically secure randomness. The base64 raw-URL alphabet keeps the
// value safe to place directly in a redirect query parameter.
func GenerateToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		byteLen = DefaultTokenBytes
	}
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[security.GenerateToken] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MustGenerateToken is GenerateToken for call sites that cannot surface an
// error (test seeding, bootstrap). crypto/rand failing is unrecoverable.
func MustGenerateToken(byteLen int) string {
	t, err := GenerateToken(byteLen)
	if err != nil {
		panic(err)
	}
	return t
}

// NewID returns a fresh UUID string for entity identifiers.
func NewID() string {
	return uuid.New().String()
}

package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns a hex-encoded SHA-256 of the token string. Stores that
// prefer not to hold raw bearer strings persist and look up this instead.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

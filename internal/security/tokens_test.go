package security_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/internal/security"
)

func TestGenerateTokenIsURLSafe(t *testing.T) {
	token, err := security.GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, token, url.QueryEscape(token), "token must survive query-parameter placement unescaped")
}

func TestGenerateTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token, err := security.GenerateToken(32)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token generated")
		seen[token] = struct{}{}
	}
}

func TestGenerateTokenDefaultsLength(t *testing.T) {
	token, err := security.GenerateToken(0)
	require.NoError(t, err)
	// 32 bytes -> 43 chars of raw base64url
	require.Len(t, token, 43)
}

func TestHashTokenIsStableAndDistinct(t *testing.T) {
	token := security.MustGenerateToken(32)
	hash := security.HashToken(token)
	require.Len(t, hash, 64)
	require.Equal(t, hash, security.HashToken(token))
	require.NotEqual(t, hash, security.HashToken(token+"x"))
}

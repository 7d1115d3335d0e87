package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/scopes"
)

func TestSplitDefaultsToProfile(t *testing.T) {
	require.Equal(t, []string{"profile"}, scopes.Split(""))
	require.Equal(t, []string{"profile"}, scopes.Split("   "))
}

func TestSplitAndJoin(t *testing.T) {
	list := scopes.Split("profile wallet:read  school:connect")
	require.Equal(t, []string{"profile", "wallet:read", "school:connect"}, list)
	require.Equal(t, "profile wallet:read school:connect", scopes.Join(list))
}

func TestRecognized(t *testing.T) {
	require.True(t, scopes.Recognized("wallet:write"))
	require.True(t, scopes.Recognized("fee:pay"))
	require.False(t, scopes.Recognized("admin:everything"))
	require.NotEmpty(t, scopes.Describe("student:sync"))
}

func TestUnrecognizedPassThrough(t *testing.T) {
	unknown := scopes.Unrecognized("profile custom:thing email")
	require.Equal(t, []string{"custom:thing"}, unknown)
}

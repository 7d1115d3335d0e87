package oauthmodel_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/oauthmodel"
	"github.com/zenwallet/authbroker/sso"
	"github.com/zenwallet/authbroker/token"
)

func TestWireErrorMapsDomainVerdicts(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{clients.ErrUnknownClient, oauthmodel.CodeUnknownClient},
		{sso.ErrTokenNotFound, oauthmodel.CodeInvalidOrUsedToken},
		{sso.ErrTokenExpired, oauthmodel.CodeExpiredToken},
		{token.ErrAccessTokenInvalid, oauthmodel.CodeInvalidAccessToken},
		{errors.Wrap(sso.ErrTokenExpired, "[FakeRepo.Consume]"), oauthmodel.CodeExpiredToken},
	}
	for _, c := range cases {
		require.Equal(t, c.code, oauthmodel.WireError(c.err).ErrorCode)
	}
}

func TestWireErrorHidesStoreInternals(t *testing.T) {
	body := oauthmodel.WireError(errors.New("pq: connection refused at 10.0.0.3"))
	require.Equal(t, oauthmodel.CodeStoreUnavailable, body.ErrorCode)
	require.NotContains(t, body.Message, "10.0.0.3")
}

func TestIsTerminalSeparatesVerdictsFromOutages(t *testing.T) {
	require.True(t, oauthmodel.IsTerminal(sso.ErrTokenNotFound))
	require.True(t, oauthmodel.IsTerminal(clients.ErrInvalidClientCredentials))
	require.False(t, oauthmodel.IsTerminal(errors.New("dial tcp: i/o timeout")))
}

package sweeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/authcode"
	codesrepofake "github.com/zenwallet/authbroker/authcode/repofake"
	"github.com/zenwallet/authbroker/sso"
	ssorepofake "github.com/zenwallet/authbroker/sso/repofake"
	"github.com/zenwallet/authbroker/sweeper"
	"github.com/zenwallet/authbroker/token"
	pairrepofake "github.com/zenwallet/authbroker/token/repofake"
)

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ssoRepo := ssorepofake.NewFakeSsoRepo()
	codeRepo := codesrepofake.NewFakeCodeRepo()
	pairRepo := pairrepofake.NewFakePairRepo()

	used := now.Add(-30 * time.Minute)
	// Expired tickets go regardless of use state.
	require.NoError(t, ssoRepo.Create(ctx, &sso.Token{Token: "t-expired", UserID: "u1", SourceApp: "my", TargetApp: "plus", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, ssoRepo.Create(ctx, &sso.Token{Token: "t-expired-used", UserID: "u1", SourceApp: "my", TargetApp: "plus", ExpiresAt: now.Add(-time.Minute), UsedAt: &used}))
	require.NoError(t, ssoRepo.Create(ctx, &sso.Token{Token: "t-live", UserID: "u1", SourceApp: "my", TargetApp: "plus", ExpiresAt: now.Add(time.Minute)}))

	require.NoError(t, codeRepo.Create(ctx, &authcode.Code{Code: "c-expired", ClientID: "cl", UserID: "u1", RedirectURI: "https://x/cb", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, codeRepo.Create(ctx, &authcode.Code{Code: "c-live", ClientID: "cl", UserID: "u1", RedirectURI: "https://x/cb", ExpiresAt: now.Add(time.Minute)}))

	revoked := now.Add(-10 * time.Minute)
	// Revoked-but-expired pairs are retained; only expired unrevoked go.
	require.NoError(t, pairRepo.Create(ctx, &token.Pair{AccessToken: "a-expired", RefreshToken: "r1", ClientID: "cl", UserID: "u1", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, pairRepo.Create(ctx, &token.Pair{AccessToken: "a-revoked", RefreshToken: "r2", ClientID: "cl", UserID: "u1", ExpiresAt: now.Add(-time.Minute), RevokedAt: &revoked}))
	require.NoError(t, pairRepo.Create(ctx, &token.Pair{AccessToken: "a-live", RefreshToken: "r3", ClientID: "cl", UserID: "u1", ExpiresAt: now.Add(time.Minute)}))

	s := sweeper.New(ssoRepo, codeRepo, pairRepo, zerolog.Nop(), sweeper.WithNowFunc(func() time.Time { return now }))
	s.SweepOnce(ctx)

	require.Equal(t, 1, ssoRepo.Len())
	require.Nil(t, codeRepo.Get("c-expired"))
	require.NotNil(t, codeRepo.Get("c-live"))
	require.Equal(t, 2, pairRepo.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	ssoRepo := ssorepofake.NewFakeSsoRepo()
	codeRepo := codesrepofake.NewFakeCodeRepo()
	pairRepo := pairrepofake.NewFakePairRepo()

	s := sweeper.New(ssoRepo, codeRepo, pairRepo, zerolog.Nop(), sweeper.WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

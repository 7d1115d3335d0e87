package token_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/clients"
	fakeclientrepo "github.com/zenwallet/authbroker/clients/fakerepo"
	"github.com/zenwallet/authbroker/token"
	pairrepofake "github.com/zenwallet/authbroker/token/repofake"
)

const (
	testClientID     = "school-portal"
	testClientSecret = "portal-secret"
)

type managerFixture struct {
	repo    *pairrepofake.FakePairRepo
	manager *token.Manager
	now     time.Time
	nowLock sync.Mutex
}

func (f *managerFixture) advance(d time.Duration) {
	f.nowLock.Lock()
	defer f.nowLock.Unlock()
	f.now = f.now.Add(d)
}

func setupManager(t *testing.T) *managerFixture {
	t.Helper()

	clientRepo := fakeclientrepo.NewFakeClientRepo()
	secretHash, err := clients.HashSecret(testClientSecret)
	require.NoError(t, err)
	require.NoError(t, clientRepo.Upsert(context.Background(), &clients.Client{
		ID:           testClientID,
		SecretHash:   secretHash,
		RedirectURIs: []string{"https://school.example/callback"},
		Scopes:       []string{"profile", "school:connect"},
		Active:       true,
	}))

	f := &managerFixture{
		repo: pairrepofake.NewFakePairRepo(),
		now:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	manager, err := token.NewManager(f.repo, clients.NewValidator(clientRepo), token.WithNowFunc(func() time.Time {
		f.nowLock.Lock()
		defer f.nowLock.Unlock()
		return f.now
	}))
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestIssueAndValidate(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile school:connect")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, f.now.Add(time.Hour), pair.ExpiresAt)

	info, err := f.manager.Validate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u1", info.UserID)
	require.Equal(t, testClientID, info.ClientID)
	require.Equal(t, "profile school:connect", info.Scope)
}

func TestValidateUnknownToken(t *testing.T) {
	f := setupManager(t)

	_, err := f.manager.Validate(context.Background(), "no-such-token")
	require.ErrorIs(t, err, token.ErrAccessTokenInvalid)

	_, err = f.manager.Validate(context.Background(), "")
	require.ErrorIs(t, err, token.ErrAccessTokenInvalid)
}

func TestValidateExpiredToken(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile")
	require.NoError(t, err)

	f.advance(time.Hour + time.Second)

	_, err = f.manager.Validate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, token.ErrAccessTokenExpired)
}

func TestRevokeBeforeExpiry(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile")
	require.NoError(t, err)

	revoked, err := f.manager.Revoke(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = f.manager.Validate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, token.ErrAccessTokenInvalid)

	// Idempotent.
	revoked, err = f.manager.Revoke(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile school:connect")
	require.NoError(t, err)

	next, err := f.manager.Refresh(ctx, pair.RefreshToken, testClientID, testClientSecret)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)
	require.Equal(t, pair.UserID, next.UserID)
	require.Equal(t, pair.Scope, next.Scope)
	require.Equal(t, pair.ClientID, next.ClientID)

	// The old access token is dead along with its pair.
	_, err = f.manager.Validate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, token.ErrAccessTokenInvalid)

	// Replaying the same refresh call fails.
	_, err = f.manager.Refresh(ctx, pair.RefreshToken, testClientID, testClientSecret)
	require.ErrorIs(t, err, token.ErrRefreshTokenInvalid)

	// The new pair works.
	_, err = f.manager.Validate(ctx, next.AccessToken)
	require.NoError(t, err)
}

func TestRefreshRequiresClientCredentials(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile")
	require.NoError(t, err)

	_, err = f.manager.Refresh(ctx, pair.RefreshToken, testClientID, "wrong-secret")
	require.ErrorIs(t, err, clients.ErrInvalidClientCredentials)

	// The failed attempt must not have burned the refresh token.
	_, err = f.manager.Refresh(ctx, pair.RefreshToken, testClientID, testClientSecret)
	require.NoError(t, err)
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	f := setupManager(t)
	ctx := context.Background()

	pair, err := f.manager.IssuePair(ctx, testClientID, "u1", "profile")
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Refresh(ctx, pair.RefreshToken, testClientID, testClientSecret)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, token.ErrRefreshTokenInvalid)
		}
	}
	require.Equal(t, 1, successes)
}

package fakeclientrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/clients"
	fakeclientrepo "github.com/zenwallet/authbroker/clients/fakerepo"
)

func seededRepo(t *testing.T) *fakeclientrepo.FakeClientRepo {
	t.Helper()
	repo := fakeclientrepo.NewFakeClientRepo()
	for _, id := range []string{"c3", "c1", "c2"} {
		require.NoError(t, repo.Upsert(context.Background(), &clients.Client{
			ID:         id,
			SecretHash: "x",
			Active:     true,
		}))
	}
	return repo
}

func TestListOrdersByIDAndPaginates(t *testing.T) {
	repo := seededRepo(t)

	page, err := repo.List(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "c2", page[0].ID)
}

func TestListZeroLimitReturnsAll(t *testing.T) {
	repo := seededRepo(t)

	all, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c1", all[0].ID)
	require.Equal(t, "c3", all[2].ID)
}

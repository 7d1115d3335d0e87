package httpdirectory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zenwallet/authbroker/users"
	"github.com/zenwallet/authbroker/users/httpdirectory"
)

func directoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/u1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(users.User{ID: "u1", Email: "amara@zenwallet.example", Tier: "gold"})
	})
	mux.HandleFunc("GET /users/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestGetByIDResolvesUser(t *testing.T) {
	ts := directoryServer(t)
	directory := httpdirectory.New(ts.URL)

	user, err := directory.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "amara@zenwallet.example", user.Email)
	require.Equal(t, "gold", user.Tier)
}

func TestGetByIDUnknownUserIsNotAnError(t *testing.T) {
	ts := directoryServer(t)
	directory := httpdirectory.New(ts.URL)

	user, err := directory.GetByID(context.Background(), "nobody")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestGetByIDSurfacesServerFailure(t *testing.T) {
	ts := directoryServer(t)
	directory := httpdirectory.New(ts.URL)

	_, err := directory.GetByID(context.Background(), "broken")
	require.Error(t, err)
}

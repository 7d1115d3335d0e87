package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/zenwallet/authbroker/auth"
	codesrepofake "github.com/zenwallet/authbroker/authcode/repofake"
	"github.com/zenwallet/authbroker/clients"
	fakeclientrepo "github.com/zenwallet/authbroker/clients/fakerepo"
	"github.com/zenwallet/authbroker/internal/config"
	"github.com/zenwallet/authbroker/oauthmodel"
	"github.com/zenwallet/authbroker/server"
	"github.com/zenwallet/authbroker/sso"
	ssorepofake "github.com/zenwallet/authbroker/sso/repofake"
	"github.com/zenwallet/authbroker/token"
	pairrepofake "github.com/zenwallet/authbroker/token/repofake"
	"github.com/zenwallet/authbroker/users"
	fakeuserdirectory "github.com/zenwallet/authbroker/users/repofake"
)

const (
	testClientID     = "school-portal"
	testClientSecret = "portal-secret"
	testRedirectURI  = "https://school.example/callback"
	testUserID       = "u1"
)

type serverFixture struct {
	ts         *httptest.Server
	clientRepo *fakeclientrepo.FakeClientRepo
	directory  *fakeuserdirectory.FakeUserDirectory
}

func setupServer(t *testing.T, cfg *config.Config) *serverFixture {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{
			AppName:    "Auth Broker",
			Env:        "test",
			TokenStore: config.StoreMemory,
		}
	}

	f := &serverFixture{
		clientRepo: fakeclientrepo.NewFakeClientRepo(),
		directory:  fakeuserdirectory.NewFakeUserDirectory(),
	}

	secretHash, err := clients.HashSecret(testClientSecret)
	require.NoError(t, err)
	require.NoError(t, f.clientRepo.Upsert(context.Background(), &clients.Client{
		ID:           testClientID,
		Name:         "School Portal",
		SecretHash:   secretHash,
		RedirectURIs: []string{testRedirectURI},
		Scopes:       []string{"profile", "email", "school:connect"},
		Active:       true,
	}))

	validator := clients.NewValidator(f.clientRepo)
	tokens, err := token.NewManager(pairrepofake.NewFakePairRepo(), validator)
	require.NoError(t, err)
	authService, err := auth.NewService(validator, codesrepofake.NewFakeCodeRepo(), tokens)
	require.NoError(t, err)
	broker, err := sso.NewBroker(ssorepofake.NewFakeSsoRepo(), f.directory)
	require.NoError(t, err)

	srv, err := server.New(cfg, server.Deps{
		Auth:    authService,
		Broker:  broker,
		Clients: f.clientRepo,
	}, zerolog.Nop())
	require.NoError(t, err)

	f.ts = httptest.NewServer(srv)
	t.Cleanup(f.ts.Close)
	return f
}

// noRedirectClient returns redirects to the caller instead of following
// them; the redirect targets point at the external client, not at us.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func authorizeQuery(state string) url.Values {
	return url.Values{
		"client_id":     {testClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"scope":         {"profile email"},
		"state":         {state},
	}
}

func postDecision(t *testing.T, f *serverFixture, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirectClient().PostForm(f.ts.URL+server.RouteOAuth2AuthorizeDecision, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeErrorBody(t *testing.T, resp *http.Response) oauthmodel.ErrorBody {
	t.Helper()
	var body oauthmodel.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthz(t *testing.T) {
	f := setupServer(t, nil)

	resp, err := http.Get(f.ts.URL + server.RouteHealthz)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthorizeDescribesConsent(t *testing.T) {
	f := setupServer(t, nil)

	resp, err := http.Get(f.ts.URL + server.RouteOAuth2Authorize + "?" + authorizeQuery("xyz").Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var descriptor struct {
		ClientName string `json:"client_name"`
		Scope      string `json:"scope"`
		State      string `json:"state"`
		Scopes     []struct {
			Scope       string `json:"scope"`
			Description string `json:"description"`
		} `json:"scopes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&descriptor))
	require.Equal(t, "School Portal", descriptor.ClientName)
	require.Equal(t, "profile email", descriptor.Scope)
	require.Equal(t, "xyz", descriptor.State)
	require.Len(t, descriptor.Scopes, 2)
	require.NotEmpty(t, descriptor.Scopes[0].Description)
}

func TestAuthorizeRejectsUnknownClientWithoutRedirecting(t *testing.T) {
	f := setupServer(t, nil)

	query := authorizeQuery("xyz")
	query.Set("client_id", "nobody")
	resp, err := noRedirectClient().Get(f.ts.URL + server.RouteOAuth2Authorize + "?" + query.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Location"))
	require.Equal(t, oauthmodel.CodeUnknownClient, decodeErrorBody(t, resp).ErrorCode)
}

func TestDecisionDenialRedirectsWithAccessDenied(t *testing.T) {
	f := setupServer(t, nil)

	form := authorizeQuery("deny-state")
	form.Set("user_id", testUserID)
	form.Set("approve", "false")
	resp := postDecision(t, f, form)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "access_denied", location.Query().Get("error"))
	require.NotEmpty(t, location.Query().Get("error_description"))
	require.Equal(t, "deny-state", location.Query().Get("state"))
	require.Empty(t, location.Query().Get("code"))
}

func TestDecisionApprovalEchoesStateAndPassthrough(t *testing.T) {
	f := setupServer(t, nil)

	form := authorizeQuery("approve-state")
	form.Set("user_id", testUserID)
	form.Set("approve", "true")
	form.Set("partner_ref", "acme-42")
	resp := postDecision(t, f, form)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(location.String(), testRedirectURI))
	require.NotEmpty(t, location.Query().Get("code"))
	require.Equal(t, "approve-state", location.Query().Get("state"))
	require.Equal(t, "acme-42", location.Query().Get("partner_ref"))
}

// approveAndGetCode drives the authorize leg and returns the minted code.
func approveAndGetCode(t *testing.T, f *serverFixture) string {
	t.Helper()
	form := authorizeQuery("s")
	form.Set("user_id", testUserID)
	form.Set("approve", "true")
	resp := postDecision(t, f, form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := location.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func TestAuthorizationCodeFlowWithOAuth2Client(t *testing.T) {
	f := setupServer(t, nil)
	code := approveAndGetCode(t, f)

	conf := &oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RedirectURL:  testRedirectURI,
		Scopes:       []string{"profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.ts.URL + server.RouteOAuth2Authorize,
			TokenURL: f.ts.URL + server.RouteOAuth2Token,
		},
	}

	tok, err := conf.Exchange(context.Background(), code)
	require.NoError(t, err)
	require.NotEmpty(t, tok.AccessToken)
	require.NotEmpty(t, tok.RefreshToken)
	require.Equal(t, "bearer", strings.ToLower(tok.TokenType))
	require.True(t, tok.Expiry.After(time.Now()))

	// Replaying the spent code must fail.
	_, err = conf.Exchange(context.Background(), code)
	require.Error(t, err)

	// Force a refresh by presenting the pair as already expired; the
	// library rotates through the token endpoint.
	stale := &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}
	rotated, err := conf.TokenSource(context.Background(), stale).Token()
	require.NoError(t, err)
	require.NotEqual(t, tok.AccessToken, rotated.AccessToken)
	require.NotEqual(t, tok.RefreshToken, rotated.RefreshToken)
}

func TestTokenEndpointRejectsWrongSecret(t *testing.T) {
	f := setupServer(t, nil)
	code := approveAndGetCode(t, f)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {testRedirectURI},
		"client_id":     {testClientID},
		"client_secret": {"wrong"},
	}
	resp, err := http.PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, oauthmodel.CodeInvalidClientCredentials, decodeErrorBody(t, resp).ErrorCode)

	// The failed attempt must not have burned the code.
	form.Set("client_secret", testClientSecret)
	retry, err := http.PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	defer retry.Body.Close()
	require.Equal(t, http.StatusOK, retry.StatusCode)
}

func exchangeForToken(t *testing.T, f *serverFixture) *oauthmodel.TokenResponse {
	t.Helper()
	code := approveAndGetCode(t, f)
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {testRedirectURI},
		"client_id":     {testClientID},
		"client_secret": {testClientSecret},
	}
	resp, err := http.PostForm(f.ts.URL+server.RouteOAuth2Token, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body oauthmodel.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return &body
}

func TestIntrospectAndRevoke(t *testing.T) {
	f := setupServer(t, nil)
	tok := exchangeForToken(t, f)

	introspect := func() map[string]any {
		resp, err := http.PostForm(f.ts.URL+server.RouteOAuth2Introspect,
			url.Values{"token": {tok.AccessToken}})
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	active := introspect()
	require.Equal(t, true, active["active"])
	require.Equal(t, testUserID, active["user_id"])
	require.Equal(t, testClientID, active["client_id"])

	resp, err := http.PostForm(f.ts.URL+server.RouteOAuth2Revoke,
		url.Values{"token": {tok.AccessToken}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	inactive := introspect()
	require.Equal(t, false, inactive["active"])
	require.Equal(t, oauthmodel.CodeInvalidAccessToken, inactive["error_code"])
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSSOIssueAndRedeem(t *testing.T) {
	f := setupServer(t, nil)
	f.directory.Add(&users.User{ID: testUserID, Email: "amara@zenwallet.example", FirstName: "Amara"})

	issueResp := postJSON(t, f.ts.URL+server.RouteSSOTokens, map[string]any{
		"user_id":       testUserID,
		"source_app":    "wallet",
		"target_app":    "school",
		"redirect_path": "/fees/term-3",
	})
	require.Equal(t, http.StatusCreated, issueResp.StatusCode)

	var issued sso.IssuedToken
	require.NoError(t, json.NewDecoder(issueResp.Body).Decode(&issued))
	require.NotEmpty(t, issued.Token)

	redeemResp := postJSON(t, f.ts.URL+server.RouteSSORedeem, map[string]string{"token": issued.Token})
	require.Equal(t, http.StatusOK, redeemResp.StatusCode)

	var redemption sso.Redemption
	require.NoError(t, json.NewDecoder(redeemResp.Body).Decode(&redemption))
	require.Equal(t, testUserID, redemption.UserID)
	require.Equal(t, "/fees/term-3", redemption.RedirectPath)
	require.NotNil(t, redemption.User)
	require.Equal(t, "amara@zenwallet.example", redemption.User.Email)

	// Second redemption of the same ticket fails.
	replay := postJSON(t, f.ts.URL+server.RouteSSORedeem, map[string]string{"token": issued.Token})
	require.Equal(t, http.StatusBadRequest, replay.StatusCode)
	require.Equal(t, oauthmodel.CodeInvalidOrUsedToken, decodeErrorBody(t, replay).ErrorCode)
}

func TestBootstrapSeedsEmptyRegistry(t *testing.T) {
	f := setupServer(t, &config.Config{
		AppName:               "Auth Broker",
		Env:                   "test",
		TokenStore:            config.StoreMemory,
		BootstrapClientID:     "dev-client",
		BootstrapClientSecret: "dev-secret",
		BootstrapRedirectURI:  "http://localhost:3000/callback",
	})

	seeded, err := f.clientRepo.Get(context.Background(), "dev-client")
	require.NoError(t, err)
	require.NotNil(t, seeded)
	require.True(t, seeded.Active)
	require.True(t, seeded.AllowsRedirectURI("http://localhost:3000/callback"))
}

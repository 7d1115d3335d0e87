package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/zenwallet/authbroker/oauthmodel"
	"github.com/zenwallet/authbroker/scopes"
)

const contentTypeJSON = "application/json; charset=utf-8"

// consentDescriptor is returned by the authorize endpoint for the
// first-party frontend to render. It discloses what the external client is
// asking for; the frontend gathers the user's decision and posts it back.
type consentDescriptor struct {
	ClientID    string        `json:"client_id"`
	ClientName  string        `json:"client_name"`
	LogoURL     string        `json:"logo_url,omitempty"`
	WebsiteURL  string        `json:"website_url,omitempty"`
	RedirectURI string        `json:"redirect_uri"`
	Scope       string        `json:"scope"`
	Scopes      []scopeDetail `json:"scopes"`
	State       string        `json:"state,omitempty"`
	Passthrough url.Values    `json:"passthrough,omitempty"`
	DecisionURL string        `json:"decision_url"`
}

type scopeDetail struct {
	Scope       string `json:"scope"`
	Description string `json:"description"`
}

// Authorize validates an incoming authorization request and describes the
// consent prompt. Validation failures are reported to the caller directly;
// an unvalidated redirect URI is never redirected to.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseAuthorizationParameters(r.URL.Query())

		client, err := s.auth.ValidateAuthorizeRequest(r.Context(), params)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		descriptor := consentDescriptor{
			ClientID:    client.ID,
			ClientName:  client.Name,
			LogoURL:     client.LogoURL,
			WebsiteURL:  client.WebsiteURL,
			RedirectURI: params.RedirectURI,
			Scope:       params.Scope,
			State:       params.State,
			Passthrough: params.Passthrough,
			DecisionURL: RouteOAuth2AuthorizeDecision,
		}
		for _, sc := range scopes.Split(params.Scope) {
			descriptor.Scopes = append(descriptor.Scopes, scopeDetail{Scope: sc, Description: scopes.Describe(sc)})
		}

		writeJSON(w, http.StatusOK, descriptor)
	}
}

// AuthorizeDecision receives the user's consent decision from the trusted
// first-party frontend and completes the authorize leg: approval mints a
// code and redirects to the client, denial redirects with access_denied.
// The request is re-validated first so that a forged decision cannot route
// a code to an unregistered URI.
func (s *Server) AuthorizeDecision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.writeInvalidRequest(w, "failed to parse form data")
			return
		}

		userID := r.PostForm.Get("user_id")
		approved := r.PostForm.Get("approve") == "true"

		form := url.Values{}
		for key, values := range r.PostForm {
			if key == "user_id" || key == "approve" {
				continue
			}
			form[key] = values
		}
		params := oauthmodel.ParseAuthorizationParameters(form)

		if _, err := s.auth.ValidateAuthorizeRequest(r.Context(), params); err != nil {
			s.writeDomainError(w, err)
			return
		}

		target, err := url.Parse(params.RedirectURI)
		if err != nil {
			s.writeInvalidRequest(w, "unparseable redirect URI")
			return
		}

		if !approved {
			q := target.Query()
			q.Set("error", "access_denied")
			q.Set("error_description", "the user denied the authorization request")
			if params.State != "" {
				q.Set("state", params.State)
			}
			target.RawQuery = q.Encode()
			http.Redirect(w, r, target.String(), http.StatusSeeOther)
			return
		}

		if userID == "" {
			s.writeInvalidRequest(w, "user_id is required to approve")
			return
		}

		issued, err := s.auth.IssueCode(r.Context(), params.ClientID, userID, params.RedirectURI, params.Scope)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		q := target.Query()
		q.Set("code", issued.Code)
		if params.State != "" {
			q.Set("state", params.State)
		}
		// Passthrough parameters are echoed verbatim, never interpreted.
		for key, values := range params.Passthrough {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		target.RawQuery = q.Encode()
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	}
}

// Token exchanges a code or refresh token for an access/refresh pair.
// Client credentials arrive either in the form body or as HTTP Basic auth;
// both are standard for confidential clients.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.writeInvalidRequest(w, "failed to parse form data")
			return
		}

		tokenReq := oauthmodel.TokenRequest{
			GrantType:    r.PostForm.Get("grant_type"),
			Code:         r.PostForm.Get("code"),
			RedirectURI:  r.PostForm.Get("redirect_uri"),
			RefreshToken: r.PostForm.Get("refresh_token"),
		}
		tokenReq.ClientID, tokenReq.ClientSecret = clientCredentials(r)

		var response *oauthmodel.TokenResponse
		var err error
		switch tokenReq.GrantType {
		case oauthmodel.GrantTypeAuthorizationCode:
			response, err = s.auth.Exchange(r.Context(),
				tokenReq.Code, tokenReq.ClientID, tokenReq.ClientSecret, tokenReq.RedirectURI)
		case oauthmodel.GrantTypeRefreshToken:
			response, err = s.auth.Refresh(r.Context(),
				tokenReq.RefreshToken, tokenReq.ClientID, tokenReq.ClientSecret)
		default:
			s.writeInvalidRequest(w, "unsupported grant_type")
			return
		}
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, response)
	}
}

// introspectionResponse reports whether an access token is live and, when
// it is, what it grants.
type introspectionResponse struct {
	Active    bool   `json:"active"`
	UserID    string `json:"user_id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Introspect answers resource servers asking whether an access token is
// still good. A definitive invalid/expired verdict is a 200 with
// active=false; only a store failure is an error status, so callers never
// mistake an outage for a revocation.
func (s *Server) Introspect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.writeInvalidRequest(w, "failed to parse form data")
			return
		}
		accessToken := r.PostForm.Get("token")
		if accessToken == "" {
			s.writeInvalidRequest(w, "token parameter is required")
			return
		}

		introspection, err := s.auth.Introspect(r.Context(), accessToken)
		if err != nil {
			if !oauthmodel.IsTerminal(err) {
				s.writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, introspectionResponse{Active: false, ErrorCode: oauthmodel.WireError(err).ErrorCode})
			return
		}

		writeJSON(w, http.StatusOK, introspectionResponse{
			Active:    true,
			UserID:    introspection.UserID,
			ClientID:  introspection.ClientID,
			Scope:     introspection.Scope,
			ExpiresAt: introspection.ExpiresAt.Unix(),
		})
	}
}

// Revoke invalidates the pair holding an access token. Idempotent: revoking
// an already-revoked or unknown token succeeds with revoked=false.
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.writeInvalidRequest(w, "failed to parse form data")
			return
		}
		accessToken := r.PostForm.Get("token")
		if accessToken == "" {
			s.writeInvalidRequest(w, "token parameter is required")
			return
		}

		revoked, err := s.auth.Revoke(r.Context(), accessToken)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
	}
}

// clientCredentials reads the client id and secret from Basic auth when
// present, falling back to the form body. Basic credentials are
// form-urlencoded per RFC 6749 §2.3.1.
func clientCredentials(r *http.Request) (string, string) {
	if id, secret, ok := r.BasicAuth(); ok {
		if unescaped, err := url.QueryUnescape(id); err == nil {
			id = unescaped
		}
		if unescaped, err := url.QueryUnescape(secret); err == nil {
			secret = unescaped
		}
		return id, secret
	}
	return r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if !oauthmodel.IsTerminal(err) {
		s.logger.Error().Err(err).Msg("store failure")
	}
	body := oauthmodel.WireError(err)
	writeJSON(w, statusForCode(body.ErrorCode), body)
}

func (s *Server) writeInvalidRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, oauthmodel.ErrorBody{
		ErrorCode: oauthmodel.CodeInvalidRequest,
		Message:   message,
	})
}

func statusForCode(code string) int {
	switch code {
	case oauthmodel.CodeInvalidClientCredentials:
		return http.StatusUnauthorized
	case oauthmodel.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

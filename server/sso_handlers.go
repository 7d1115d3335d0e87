package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zenwallet/authbroker/sso"
)

// issueTicketRequest is posted server-to-server by a first-party
// application about to hand a user off. ExpiresIn is in seconds; zero means
// the configured default.
type issueTicketRequest struct {
	UserID       string         `json:"user_id"`
	SourceApp    string         `json:"source_app"`
	TargetApp    string         `json:"target_app"`
	RedirectPath string         `json:"redirect_path,omitempty"`
	Tier         string         `json:"tier,omitempty"`
	Scope        string         `json:"scope,omitempty"`
	ClientID     string         `json:"client_id,omitempty"`
	ExpiresIn    int            `json:"expires_in,omitempty"`
	Extension    *sso.Extension `json:"extension,omitempty"`
}

func (s *Server) IssueSSOToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeInvalidRequest(w, "failed to parse request body")
			return
		}
		if req.UserID == "" || req.SourceApp == "" || req.TargetApp == "" {
			s.writeInvalidRequest(w, "user_id, source_app and target_app are required")
			return
		}

		expiry := s.config.SSOExpiry()
		if req.ExpiresIn > 0 {
			expiry = time.Duration(req.ExpiresIn) * time.Second
		}

		issued, err := s.broker.Issue(r.Context(), req.UserID, req.SourceApp, req.TargetApp, sso.IssueOptions{
			Expiry:       expiry,
			RedirectPath: req.RedirectPath,
			Tier:         req.Tier,
			Scope:        req.Scope,
			ClientID:     req.ClientID,
			Extension:    req.Extension,
		})
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, issued)
	}
}

type redeemTicketRequest struct {
	Token string `json:"token"`
}

func (s *Server) RedeemSSOToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req redeemTicketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeInvalidRequest(w, "failed to parse request body")
			return
		}
		if req.Token == "" {
			s.writeInvalidRequest(w, "token is required")
			return
		}

		redemption, err := s.broker.Redeem(r.Context(), req.Token)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, redemption)
	}
}

// Healthz answers liveness probes. The registry read doubles as a store
// ping so a dead backend flips the probe before traffic lands on it.
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.clients.List(r.Context(), 0, 1); err != nil {
			s.logger.Error().Err(err).Msg("health check store ping failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

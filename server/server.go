// Package server exposes the broker over HTTP: the OAuth2 endpoints used by
// external partner clients and the SSO ticket endpoints used by first-party
// applications.
package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zenwallet/authbroker/auth"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/internal/config"
	"github.com/zenwallet/authbroker/sso"
)

// Deps are the wired domain services the server fronts.
type Deps struct {
	Auth    *auth.Service
	Broker  *sso.Broker
	Clients clients.Repo
}

type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	config  *config.Config
	auth    *auth.Service
	broker  *sso.Broker
	clients clients.Repo
	logger  zerolog.Logger
}

func New(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if deps.Broker == nil {
		return nil, errors.New("[server.New] sso broker is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[server.New] client registry is required")
	}

	s := &Server{
		env:     cfg.Env,
		mux:     http.NewServeMux(),
		config:  cfg,
		auth:    deps.Auth,
		broker:  deps.Broker,
		clients: deps.Clients,
		logger:  logger,
	}

	if err := s.bootstrapClient(context.Background()); err != nil {
		return nil, errors.Wrap(err, "[server.New] bootstrap client")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "development" {
		return
	}
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered")
	}
}

package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/scopes"
)

// bootstrapClient seeds a first client into an empty registry when the
// bootstrap config is set. Dev convenience; in production clients are
// provisioned out of band and the bootstrap vars stay empty.
func (s *Server) bootstrapClient(ctx context.Context) error {
	if s.config.BootstrapClientID == "" {
		return nil
	}

	existing, err := s.clients.Get(ctx, s.config.BootstrapClientID)
	if err != nil {
		return errors.Wrap(err, "[Server.bootstrapClient] registry lookup")
	}
	if existing != nil {
		return nil
	}

	secretHash, err := clients.HashSecret(s.config.BootstrapClientSecret)
	if err != nil {
		return errors.Wrap(err, "[Server.bootstrapClient] hash secret")
	}

	client := &clients.Client{
		ID:           s.config.BootstrapClientID,
		Name:         "Bootstrap Client",
		SecretHash:   secretHash,
		RedirectURIs: []string{s.config.BootstrapRedirectURI},
		Scopes:       scopes.All(),
		Active:       true,
	}
	if err := s.clients.Upsert(ctx, client); err != nil {
		return errors.Wrap(err, "[Server.bootstrapClient] upsert client")
	}

	s.logger.Info().
		Str("client_id", client.ID).
		Str("redirect_uri", s.config.BootstrapRedirectURI).
		Msg("seeded bootstrap client")
	return nil
}

package pgclientrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/internal/security"
)

var _ clients.Repo = (*PgClientRepo)(nil)

// PgClientRepo persists the client registry in Postgres.
type PgClientRepo struct {
	pool *pgxpool.Pool
}

func NewPgClientRepo(pool *pgxpool.Pool) *PgClientRepo {
	return &PgClientRepo{pool: pool}
}

func (r *PgClientRepo) Upsert(ctx context.Context, client *clients.Client) error {
	if client.ID == "" {
		client.ID = security.NewID()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_clients (id, name, secret_hash, redirect_uris, scopes, active, logo_url, website_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			secret_hash = EXCLUDED.secret_hash,
			redirect_uris = EXCLUDED.redirect_uris,
			scopes = EXCLUDED.scopes,
			active = EXCLUDED.active,
			logo_url = EXCLUDED.logo_url,
			website_url = EXCLUDED.website_url`,
		client.ID, client.Name, client.SecretHash, client.RedirectURIs, client.Scopes,
		client.Active, client.LogoURL, client.WebsiteURL)
	return errors.Wrap(err, "[PgClientRepo.Upsert] exec")
}

func (r *PgClientRepo) Delete(ctx context.Context, clientID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM oauth_clients WHERE id = $1`, clientID)
	return errors.Wrap(err, "[PgClientRepo.Delete] exec")
}

// Get returns the client, or (nil, nil) when no such client exists.
func (r *PgClientRepo) Get(ctx context.Context, clientID string) (*clients.Client, error) {
	var c clients.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, secret_hash, redirect_uris, scopes, active, logo_url, website_url
		FROM oauth_clients WHERE id = $1`, clientID).
		Scan(&c.ID, &c.Name, &c.SecretHash, &c.RedirectURIs, &c.Scopes, &c.Active, &c.LogoURL, &c.WebsiteURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[PgClientRepo.Get] query")
	}
	return &c, nil
}

func (r *PgClientRepo) List(ctx context.Context, offset, limit int) ([]*clients.Client, error) {
	// limit <= 0 means no limit; LIMIT NULL reads the whole registry.
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, secret_hash, redirect_uris, scopes, active, logo_url, website_url
		FROM oauth_clients ORDER BY id OFFSET $1 LIMIT $2`, offset, limitArg)
	if err != nil {
		return nil, errors.Wrap(err, "[PgClientRepo.List] query")
	}
	defer rows.Close()

	var out []*clients.Client
	for rows.Next() {
		var c clients.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.SecretHash, &c.RedirectURIs, &c.Scopes, &c.Active, &c.LogoURL, &c.WebsiteURL); err != nil {
			return nil, errors.Wrap(err, "[PgClientRepo.List] scan")
		}
		out = append(out, &c)
	}
	return out, errors.Wrap(rows.Err(), "[PgClientRepo.List] rows")
}

package pgcoderepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/authcode"
)

var _ authcode.Repo = (*PgCodeRepo)(nil)

// PgCodeRepo stores authorization grants in Postgres. The client and
// redirect binding travel in the consume predicate, so a mismatched
// exchange cannot burn the grant.
type PgCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPgCodeRepo(pool *pgxpool.Pool) *PgCodeRepo {
	return &PgCodeRepo{pool: pool}
}

func (r *PgCodeRepo) Create(ctx context.Context, code *authcode.Code) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO authorization_codes (code, client_id, user_id, redirect_uri, scope, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code.Code, code.ClientID, code.UserID, code.RedirectURI, code.Scope, code.ExpiresAt, code.CreatedAt)
	return errors.Wrap(err, "[PgCodeRepo.Create] exec")
}

func (r *PgCodeRepo) Consume(ctx context.Context, code, clientID, redirectURI string, now time.Time) (*authcode.Code, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE authorization_codes SET used_at = $4
		WHERE code = $1 AND client_id = $2 AND redirect_uri = $3 AND used_at IS NULL AND expires_at > $4
		RETURNING code, client_id, user_id, redirect_uri, scope, expires_at, used_at, created_at`,
		code, clientID, redirectURI, now)

	var c authcode.Code
	err := row.Scan(&c.Code, &c.ClientID, &c.UserID, &c.RedirectURI, &c.Scope, &c.ExpiresAt, &c.UsedAt, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "[PgCodeRepo.Consume] update")
	}

	// A grant that exists, is unused, and carries the right binding can
	// only have failed the expiry test. Everything else is not-found.
	var expiresAt time.Time
	var usedAt *time.Time
	err = r.pool.QueryRow(ctx, `
		SELECT expires_at, used_at FROM authorization_codes
		WHERE code = $1 AND client_id = $2 AND redirect_uri = $3`,
		code, clientID, redirectURI).Scan(&expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authcode.ErrGrantNotFound
		}
		return nil, errors.Wrap(err, "[PgCodeRepo.Consume] classify")
	}
	if usedAt != nil {
		return nil, authcode.ErrGrantNotFound
	}
	return nil, authcode.ErrGrantExpired
}

func (r *PgCodeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM authorization_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "[PgCodeRepo.DeleteExpired] exec")
	}
	return tag.RowsAffected(), nil
}

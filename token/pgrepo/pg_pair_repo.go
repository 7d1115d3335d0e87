package pgpairrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/token"
)

var _ token.Repo = (*PgPairRepo)(nil)

// PgPairRepo stores access/refresh pairs in Postgres. Rotate runs as one
// transaction so an interrupted refresh leaves the old pair intact.
type PgPairRepo struct {
	pool *pgxpool.Pool
}

func NewPgPairRepo(pool *pgxpool.Pool) *PgPairRepo {
	return &PgPairRepo{pool: pool}
}

const pairColumns = `access_token, refresh_token, client_id, user_id, scope, expires_at, revoked_at, created_at`

func (r *PgPairRepo) Create(ctx context.Context, pair *token.Pair) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO token_pairs (`+pairColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pair.AccessToken, pair.RefreshToken, pair.ClientID, pair.UserID,
		pair.Scope, pair.ExpiresAt, pair.RevokedAt, pair.CreatedAt)
	return errors.Wrap(err, "[PgPairRepo.Create] exec")
}

func (r *PgPairRepo) GetByAccessToken(ctx context.Context, accessToken string) (*token.Pair, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pairColumns+` FROM token_pairs WHERE access_token = $1`, accessToken)
	pair, err := scanPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PgPairRepo.GetByAccessToken] scan")
	}
	return pair, nil
}

func (r *PgPairRepo) GetByRefreshToken(ctx context.Context, refreshToken, clientID string) (*token.Pair, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pairColumns+` FROM token_pairs WHERE refresh_token = $1 AND client_id = $2`,
		refreshToken, clientID)
	pair, err := scanPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PgPairRepo.GetByRefreshToken] scan")
	}
	return pair, nil
}

// Rotate revokes the presented pair and inserts the replacement inside one
// transaction. The conditional revoke elects the winner of concurrent
// refreshes: whoever finds revoked_at still NULL commits, everyone else
// rolls back with ErrRefreshTokenInvalid.
func (r *PgPairRepo) Rotate(ctx context.Context, refreshToken, clientID string, now time.Time, newPair *token.Pair) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "[PgPairRepo.Rotate] begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE token_pairs SET revoked_at = $3
		WHERE refresh_token = $1 AND client_id = $2 AND revoked_at IS NULL`,
		refreshToken, clientID, now)
	if err != nil {
		return errors.Wrap(err, "[PgPairRepo.Rotate] revoke")
	}
	if tag.RowsAffected() == 0 {
		return token.ErrRefreshTokenInvalid
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO token_pairs (`+pairColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		newPair.AccessToken, newPair.RefreshToken, newPair.ClientID, newPair.UserID,
		newPair.Scope, newPair.ExpiresAt, newPair.RevokedAt, newPair.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "[PgPairRepo.Rotate] insert")
	}
	return errors.Wrap(tx.Commit(ctx), "[PgPairRepo.Rotate] commit")
}

func (r *PgPairRepo) RevokeByAccessToken(ctx context.Context, accessToken string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE token_pairs SET revoked_at = $2
		WHERE access_token = $1 AND revoked_at IS NULL`,
		accessToken, now)
	if err != nil {
		return false, errors.Wrap(err, "[PgPairRepo.RevokeByAccessToken] exec")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgPairRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM token_pairs WHERE expires_at < $1 AND revoked_at IS NULL`, before)
	if err != nil {
		return 0, errors.Wrap(err, "[PgPairRepo.DeleteExpired] exec")
	}
	return tag.RowsAffected(), nil
}

func scanPair(row pgx.Row) (*token.Pair, error) {
	var p token.Pair
	if err := row.Scan(&p.AccessToken, &p.RefreshToken, &p.ClientID, &p.UserID,
		&p.Scope, &p.ExpiresAt, &p.RevokedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

package pgssorepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/sso"
)

var _ sso.Repo = (*PgSsoRepo)(nil)

// PgSsoRepo persists one-time tickets in Postgres. The consume path is a
// single conditional UPDATE; the database decides the winner of any
// concurrent redemption race.
type PgSsoRepo struct {
	pool *pgxpool.Pool
}

func NewPgSsoRepo(pool *pgxpool.Pool) *PgSsoRepo {
	return &PgSsoRepo{pool: pool}
}

func (r *PgSsoRepo) Create(ctx context.Context, token *sso.Token) error {
	var extension []byte
	if token.Extension != nil {
		var err error
		extension, err = json.Marshal(token.Extension)
		if err != nil {
			return errors.Wrap(err, "[PgSsoRepo.Create] marshal extension")
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sso_tokens (token, user_id, source_app, target_app, redirect_path, tier, scope, client_id, extension, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		token.Token, token.UserID, token.SourceApp, token.TargetApp, token.RedirectPath,
		token.Tier, token.Scope, token.ClientID, extension, token.ExpiresAt, token.CreatedAt)
	return errors.Wrap(err, "[PgSsoRepo.Create] exec")
}

// Consume marks the ticket used in one conditional statement. On zero rows
// a follow-up read classifies the failure; that read can only turn one
// error into another, so the race stays closed.
func (r *PgSsoRepo) Consume(ctx context.Context, token string, now time.Time) (*sso.Token, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sso_tokens SET used_at = $2
		WHERE token = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING token, user_id, source_app, target_app, redirect_path, tier, scope, client_id, extension, expires_at, used_at, created_at`,
		token, now)

	stored, err := scanToken(row)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrap(err, "[PgSsoRepo.Consume] update")
	}

	// Nothing updated: absent, already used, or expired. Only a positive
	// store answer may produce a verdict, so classify with a plain read.
	var expiresAt time.Time
	var usedAt *time.Time
	err = r.pool.QueryRow(ctx, `SELECT expires_at, used_at FROM sso_tokens WHERE token = $1`, token).
		Scan(&expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sso.ErrTokenNotFound
		}
		return nil, errors.Wrap(err, "[PgSsoRepo.Consume] classify")
	}
	if usedAt != nil {
		return nil, sso.ErrTokenNotFound
	}
	return nil, sso.ErrTokenExpired
}

func (r *PgSsoRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sso_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, errors.Wrap(err, "[PgSsoRepo.DeleteExpired] exec")
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*sso.Token, error) {
	var t sso.Token
	var extension []byte
	if err := row.Scan(&t.Token, &t.UserID, &t.SourceApp, &t.TargetApp, &t.RedirectPath,
		&t.Tier, &t.Scope, &t.ClientID, &extension, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if len(extension) > 0 {
		t.Extension = &sso.Extension{}
		if err := json.Unmarshal(extension, t.Extension); err != nil {
			return nil, errors.Wrap(err, "unmarshal extension")
		}
	}
	return &t, nil
}

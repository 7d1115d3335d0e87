package redisssorepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/zenwallet/authbroker/internal/security"
	"github.com/zenwallet/authbroker/sso"
)

var _ sso.Repo = (*RedisSsoRepo)(nil)

const (
	keyPrefix = "sso:ticket:"

	// Expired tickets are kept around past their expiry so a late redeem
	// still gets a positive expired verdict instead of not-found. After
	// the retention window Redis evicts the key and the verdict decays to
	// not-found, which is the safe direction.
	expiredRetention = 24 * time.Hour
)

// redeemScript is the whole consume path: load, classify, mark used. It
// runs server-side in one call, so of any number of concurrent redeems
// exactly one sees an unused ticket.
var redeemScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return {'missing'}
end
local t = cjson.decode(raw)
if t.used_at then
	return {'used'}
end
if t.expires_at_unix <= tonumber(ARGV[1]) then
	return {'expired'}
end
t.used_at = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(t), 'KEEPTTL')
return {'ok', cjson.encode(t)}
`)

// RedisSsoRepo stores one-time tickets as JSON values in Redis. Each ticket
// carries its own state; atomicity comes from running the redeem as a
// single Lua script. Tickets are keyed and stored by SHA-256 of the bearer
// string, so Redis never holds a value that is sufficient to redeem.
type RedisSsoRepo struct {
	client *redis.Client
}

func NewRedisSsoRepo(client *redis.Client) *RedisSsoRepo {
	return &RedisSsoRepo{client: client}
}

// ticketRecord is the stored shape. Token holds the SHA-256 of the bearer
// string, never the raw value. ExpiresAtUnix duplicates ExpiresAt as a
// number so the redeem script can compare it without parsing timestamps.
type ticketRecord struct {
	Token         string         `json:"token"`
	UserID        string         `json:"user_id"`
	SourceApp     string         `json:"source_app"`
	TargetApp     string         `json:"target_app"`
	RedirectPath  string         `json:"redirect_path,omitempty"`
	Tier          string         `json:"tier,omitempty"`
	Scope         string         `json:"scope,omitempty"`
	ClientID      string         `json:"client_id,omitempty"`
	Extension     *sso.Extension `json:"extension,omitempty"`
	ExpiresAt     time.Time      `json:"expires_at"`
	ExpiresAtUnix int64          `json:"expires_at_unix"`
	UsedAt        *time.Time     `json:"used_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (r *RedisSsoRepo) Create(ctx context.Context, token *sso.Token) error {
	hashed := security.HashToken(token.Token)
	record := ticketRecord{
		Token:         hashed,
		UserID:        token.UserID,
		SourceApp:     token.SourceApp,
		TargetApp:     token.TargetApp,
		RedirectPath:  token.RedirectPath,
		Tier:          token.Tier,
		Scope:         token.Scope,
		ClientID:      token.ClientID,
		Extension:     token.Extension,
		ExpiresAt:     token.ExpiresAt,
		ExpiresAtUnix: token.ExpiresAt.Unix(),
		UsedAt:        token.UsedAt,
		CreatedAt:     token.CreatedAt,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[RedisSsoRepo.Create] marshal")
	}
	ttl := time.Until(token.ExpiresAt) + expiredRetention
	err = r.client.Set(ctx, keyPrefix+hashed, payload, ttl).Err()
	return errors.Wrap(err, "[RedisSsoRepo.Create] set")
}

func (r *RedisSsoRepo) Consume(ctx context.Context, token string, now time.Time) (*sso.Token, error) {
	result, err := redeemScript.Run(ctx, r.client,
		[]string{keyPrefix + security.HashToken(token)},
		now.Unix(), now.UTC().Format(time.RFC3339Nano)).Slice()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisSsoRepo.Consume] script")
	}
	if len(result) == 0 {
		return nil, errors.New("[RedisSsoRepo.Consume] empty script reply")
	}

	verdict, _ := result[0].(string)
	switch verdict {
	case "missing", "used":
		return nil, sso.ErrTokenNotFound
	case "expired":
		return nil, sso.ErrTokenExpired
	case "ok":
	default:
		return nil, errors.Errorf("[RedisSsoRepo.Consume] unexpected verdict %q", verdict)
	}

	raw, _ := result[1].(string)
	var record ticketRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, errors.Wrap(err, "[RedisSsoRepo.Consume] unmarshal")
	}
	return record.token(), nil
}

// DeleteExpired walks the ticket keyspace and removes tickets whose expiry
// precedes before. Redis also evicts keys on its own once the retention
// TTL lapses; this pass just tightens the window when asked.
func (r *RedisSsoRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, errors.Wrap(err, "[RedisSsoRepo.DeleteExpired] get")
		}
		var record ticketRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		if record.ExpiresAt.Before(before) {
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return removed, errors.Wrap(err, "[RedisSsoRepo.DeleteExpired] del")
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, errors.Wrap(err, "[RedisSsoRepo.DeleteExpired] scan")
	}
	return removed, nil
}

func (r *ticketRecord) token() *sso.Token {
	return &sso.Token{
		Token:        r.Token,
		UserID:       r.UserID,
		SourceApp:    r.SourceApp,
		TargetApp:    r.TargetApp,
		RedirectPath: r.RedirectPath,
		Tier:         r.Tier,
		Scope:        r.Scope,
		ClientID:     r.ClientID,
		Extension:    r.Extension,
		ExpiresAt:    r.ExpiresAt,
		UsedAt:       r.UsedAt,
		CreatedAt:    r.CreatedAt,
	}
}

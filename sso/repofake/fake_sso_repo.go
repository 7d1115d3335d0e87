package ssorepofake

import (
	"context"
	"sync"
	"time"

	"github.com/zenwallet/authbroker/sso"
)

var _ sso.Repo = (*FakeSsoRepo)(nil)

// FakeSsoRepo is an in-memory ticket store. Consume applies the same
// conditional-mutation discipline as the Postgres store, under a single
// lock, so the concurrency tests exercise the real contract.
type FakeSsoRepo struct {
	tokens map[string]*sso.Token
	lock   sync.Mutex
}

func NewFakeSsoRepo() *FakeSsoRepo {
	return &FakeSsoRepo{tokens: make(map[string]*sso.Token)}
}

func (r *FakeSsoRepo) Create(_ context.Context, token *sso.Token) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *FakeSsoRepo) Consume(_ context.Context, token string, now time.Time) (*sso.Token, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.tokens[token]
	if !ok || stored.UsedAt != nil {
		return nil, sso.ErrTokenNotFound
	}
	if !now.Before(stored.ExpiresAt) {
		// Reported ineligible but left untouched; cleanup is the sweeper's job.
		return nil, sso.ErrTokenExpired
	}

	usedAt := now
	stored.UsedAt = &usedAt
	cp := *stored
	return &cp, nil
}

func (r *FakeSsoRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var removed int64
	for key, stored := range r.tokens {
		if stored.ExpiresAt.Before(before) {
			delete(r.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored tickets (expired or not). Test helper.
func (r *FakeSsoRepo) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.tokens)
}

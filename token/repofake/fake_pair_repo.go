package pairrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/zenwallet/authbroker/token"
)

var _ token.Repo = (*FakePairRepo)(nil)

// FakePairRepo is an in-memory pair store. Rotate performs the conditional
// revoke and the insert under one lock, mirroring the single transaction
// the Postgres store uses.
type FakePairRepo struct {
	byAccess  map[string]*token.Pair
	byRefresh map[string]*token.Pair
	lock      sync.Mutex
}

func NewFakePairRepo() *FakePairRepo {
	return &FakePairRepo{
		byAccess:  make(map[string]*token.Pair),
		byRefresh: make(map[string]*token.Pair),
	}
}

func (r *FakePairRepo) Create(_ context.Context, pair *token.Pair) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.insertLocked(pair)
	return nil
}

func (r *FakePairRepo) insertLocked(pair *token.Pair) {
	cp := *pair
	r.byAccess[pair.AccessToken] = &cp
	r.byRefresh[pair.RefreshToken] = &cp
}

func (r *FakePairRepo) GetByAccessToken(_ context.Context, accessToken string) (*token.Pair, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	pair, ok := r.byAccess[accessToken]
	if !ok {
		return nil, nil
	}
	cp := *pair
	return &cp, nil
}

func (r *FakePairRepo) GetByRefreshToken(_ context.Context, refreshToken, clientID string) (*token.Pair, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	pair, ok := r.byRefresh[refreshToken]
	if !ok || pair.ClientID != clientID {
		return nil, nil
	}
	cp := *pair
	return &cp, nil
}

func (r *FakePairRepo) Rotate(_ context.Context, refreshToken, clientID string, now time.Time, newPair *token.Pair) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	current, ok := r.byRefresh[refreshToken]
	if !ok || current.ClientID != clientID || current.RevokedAt != nil {
		return token.ErrRefreshTokenInvalid
	}

	revokedAt := now
	current.RevokedAt = &revokedAt
	r.insertLocked(newPair)
	return nil
}

func (r *FakePairRepo) RevokeByAccessToken(_ context.Context, accessToken string, now time.Time) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	pair, ok := r.byAccess[accessToken]
	if !ok || pair.RevokedAt != nil {
		return false, nil
	}
	revokedAt := now
	pair.RevokedAt = &revokedAt
	return true, nil
}

func (r *FakePairRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var removed int64
	for access, pair := range r.byAccess {
		if pair.ExpiresAt.Before(before) && pair.RevokedAt == nil {
			delete(r.byAccess, access)
			delete(r.byRefresh, pair.RefreshToken)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored pairs. Test helper.
func (r *FakePairRepo) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.byAccess)
}

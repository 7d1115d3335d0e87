package codesrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/zenwallet/authbroker/authcode"
)

var _ authcode.Repo = (*FakeCodeRepo)(nil)

// FakeCodeRepo is an in-memory code store with the same conditional-consume
// semantics as the Postgres implementation.
type FakeCodeRepo struct {
	codes map[string]*authcode.Code
	lock  sync.Mutex
}

func NewFakeCodeRepo() *FakeCodeRepo {
	return &FakeCodeRepo{codes: make(map[string]*authcode.Code)}
}

func (r *FakeCodeRepo) Create(_ context.Context, code *authcode.Code) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	cp := *code
	r.codes[code.Code] = &cp
	return nil
}

func (r *FakeCodeRepo) Consume(_ context.Context, code, clientID, redirectURI string, now time.Time) (*authcode.Code, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.codes[code]
	if !ok || stored.UsedAt != nil || stored.ClientID != clientID || stored.RedirectURI != redirectURI {
		return nil, authcode.ErrGrantNotFound
	}
	if !now.Before(stored.ExpiresAt) {
		return nil, authcode.ErrGrantExpired
	}

	usedAt := now
	stored.UsedAt = &usedAt
	cp := *stored
	return &cp, nil
}

func (r *FakeCodeRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var removed int64
	for key, stored := range r.codes {
		if stored.ExpiresAt.Before(before) {
			delete(r.codes, key)
			removed++
		}
	}
	return removed, nil
}

// Get returns the stored code without consuming it. Test helper.
func (r *FakeCodeRepo) Get(code string) *authcode.Code {
	r.lock.Lock()
	defer r.lock.Unlock()
	stored, ok := r.codes[code]
	if !ok {
		return nil
	}
	cp := *stored
	return &cp
}

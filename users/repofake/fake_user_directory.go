package fakeuserdirectory

import (
	"context"
	"sync"

	"github.com/zenwallet/authbroker/users"
)

var _ users.Directory = (*FakeUserDirectory)(nil)

// FakeUserDirectory is an in-memory user directory for tests and dev runs.
type FakeUserDirectory struct {
	users map[string]*users.User
	lock  sync.RWMutex
}

func NewFakeUserDirectory() *FakeUserDirectory {
	return &FakeUserDirectory{users: make(map[string]*users.User)}
}

func (d *FakeUserDirectory) Add(user *users.User) {
	d.lock.Lock()
	defer d.lock.Unlock()
	cp := *user
	d.users[user.ID] = &cp
}

func (d *FakeUserDirectory) GetByID(_ context.Context, userID string) (*users.User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	user, ok := d.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

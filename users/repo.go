package users

import "context"

// Directory resolves user ids against the external user store.
type Directory interface {
	// GetByID returns the user, or (nil, nil) when the id is unknown.
	GetByID(ctx context.Context, userID string) (*User, error)
}

type nopDirectory struct{}

func (nopDirectory) GetByID(context.Context, string) (*User, error) {
	return nil, nil
}

// NopDirectory resolves nothing. Used when no user service is configured;
// redemptions then carry ids without profile enrichment.
func NopDirectory() Directory {
	return nopDirectory{}
}

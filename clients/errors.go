package clients

import "errors"

var (
	ErrUnknownClient    = errors.New("unknown client")
	ErrInactiveClient   = errors.New("inactive client")
	ErrRedirectMismatch = errors.New("redirect uri not in allow-list")
	ErrScopeNotAllowed  = errors.New("scope not allowed for client")

	ErrInvalidClientCredentials = errors.New("invalid client credentials")
)

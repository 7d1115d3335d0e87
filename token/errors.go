package token

import "errors"

var (
	ErrAccessTokenInvalid  = errors.New("invalid or revoked access token")
	ErrAccessTokenExpired  = errors.New("access token expired")
	ErrRefreshTokenInvalid = errors.New("invalid or revoked refresh token")
)

package oauthmodel

import (
	"errors"

	"github.com/zenwallet/authbroker/authcode"
	"github.com/zenwallet/authbroker/clients"
	"github.com/zenwallet/authbroker/sso"
	"github.com/zenwallet/authbroker/token"
)

// ErrUnsupportedResponseType rejects any authorize request whose
// response_type is not "code".
var ErrUnsupportedResponseType = errors.New("unsupported response type")

// Wire error codes. Token/code verdicts always carry a distinct code so a
// caller can tell "expired, restart the flow" from "already used, possible
// replay, do not retry".
const (
	CodeUnknownClient            = "unknown_client"
	CodeInactiveClient           = "inactive_client"
	CodeRedirectMismatch         = "redirect_mismatch"
	CodeUnsupportedResponseType  = "unsupported_response_type"
	CodeInvalidOrUsedToken       = "invalid_or_used_token"
	CodeExpiredToken             = "expired_token"
	CodeInvalidOrUsedGrant       = "invalid_or_used_grant"
	CodeExpiredGrant             = "expired_grant"
	CodeInvalidClientCredentials = "invalid_client_credentials"
	CodeInvalidAccessToken       = "invalid_or_revoked_access_token"
	CodeExpiredAccessToken       = "expired_access_token"
	CodeInvalidRefreshToken      = "invalid_or_revoked_refresh_token"
	CodeScopeNotAllowed          = "scope_not_allowed"
	CodeInvalidRequest           = "invalid_request"
	CodeStoreUnavailable         = "store_unavailable"
)

// ErrorBody is the structured error returned to server-to-server callers.
type ErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// WireError maps a domain error to its wire code. Anything outside the
// taxonomy is a store/infrastructure failure: transient, retryable with
// backoff, and never conflated with an invalid-token verdict.
func WireError(err error) ErrorBody {
	code := CodeStoreUnavailable
	switch {
	case errors.Is(err, clients.ErrUnknownClient):
		code = CodeUnknownClient
	case errors.Is(err, clients.ErrInactiveClient):
		code = CodeInactiveClient
	case errors.Is(err, clients.ErrRedirectMismatch):
		code = CodeRedirectMismatch
	case errors.Is(err, clients.ErrScopeNotAllowed):
		code = CodeScopeNotAllowed
	case errors.Is(err, clients.ErrInvalidClientCredentials):
		code = CodeInvalidClientCredentials
	case errors.Is(err, ErrUnsupportedResponseType):
		code = CodeUnsupportedResponseType
	case errors.Is(err, sso.ErrTokenNotFound):
		code = CodeInvalidOrUsedToken
	case errors.Is(err, sso.ErrTokenExpired):
		code = CodeExpiredToken
	case errors.Is(err, authcode.ErrGrantNotFound):
		code = CodeInvalidOrUsedGrant
	case errors.Is(err, authcode.ErrGrantExpired):
		code = CodeExpiredGrant
	case errors.Is(err, token.ErrAccessTokenInvalid):
		code = CodeInvalidAccessToken
	case errors.Is(err, token.ErrAccessTokenExpired):
		code = CodeExpiredAccessToken
	case errors.Is(err, token.ErrRefreshTokenInvalid):
		code = CodeInvalidRefreshToken
	}
	if code == CodeStoreUnavailable {
		// Do not leak store internals; the caller only needs to know the
		// verdict is not definitive.
		return ErrorBody{ErrorCode: code, Message: "token store unavailable, retry with backoff"}
	}
	return ErrorBody{ErrorCode: code, Message: err.Error()}
}

// IsTerminal reports whether the error is a definitive protocol verdict
// rather than a transient store failure.
func IsTerminal(err error) bool {
	return WireError(err).ErrorCode != CodeStoreUnavailable
}

package oauthmodel

// Grant types accepted by the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

// TokenRequest is the server-to-server body of the token endpoint. It
// covers both the code exchange and the refresh grant; client credentials
// arrive either in the form body or via HTTP Basic auth.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// Code and RedirectURI apply to the authorization_code grant. The
	// redirect URI must equal the one bound at issuance.
	Code        string
	RedirectURI string

	// RefreshToken applies to the refresh_token grant.
	RefreshToken string
}

package server

// Route path constants. All routes are defined here to keep handlers and
// tests pointing at the same strings.
const (
	// OAuth2 authorization-code flow
	RouteOAuth2Authorize         = "/oauth2/authorize"
	RouteOAuth2AuthorizeDecision = "/oauth2/authorize/decision"
	RouteOAuth2Token             = "/oauth2/token"
	RouteOAuth2Introspect        = "/oauth2/introspect"
	RouteOAuth2Revoke            = "/oauth2/revoke"

	// Cross-application SSO tickets
	RouteSSOTokens = "/sso/tokens"
	RouteSSORedeem = "/sso/redeem"

	RouteHealthz = "/healthz"
)

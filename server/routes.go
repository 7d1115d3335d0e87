package server

func (s *Server) initRoutes() {
	// Authorization-code flow for external partner clients
	s.RegisterRouteFunc("GET "+RouteOAuth2Authorize, s.chain(s.Authorize()))
	s.RegisterRouteFunc("POST "+RouteOAuth2AuthorizeDecision, s.chain(s.AuthorizeDecision()))
	s.RegisterRouteFunc("POST "+RouteOAuth2Token, s.chain(s.Token()))
	s.RegisterRouteFunc("POST "+RouteOAuth2Introspect, s.chain(s.Introspect()))
	s.RegisterRouteFunc("POST "+RouteOAuth2Revoke, s.chain(s.Revoke()))

	// First-party SSO tickets
	s.RegisterRouteFunc("POST "+RouteSSOTokens, s.chain(s.IssueSSOToken()))
	s.RegisterRouteFunc("POST "+RouteSSORedeem, s.chain(s.RedeemSSOToken()))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.Healthz())
}

// Package oauthmodel holds the wire-level types of the broker's OAuth2
// surface: authorize-request parameters, token requests and responses, and
// the structured error body returned to server-to-server callers.
package oauthmodel

import (
	"net/url"

	"github.com/zenwallet/authbroker/scopes"
)

// ResponseTypeCode is the only response type the broker supports.
const ResponseTypeCode = "code"

// AuthorizationParameters are the query parameters of an authorize request.
// State is opaque: echoed back unmodified, never interpreted. Passthrough
// collects any caller-supplied parameters outside the OAuth vocabulary;
// they are echoed verbatim on the success redirect and never inspected for
// meaning.
type AuthorizationParameters struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
	Passthrough  url.Values
}

// reserved names are consumed by the flow and excluded from Passthrough.
var reservedParams = map[string]struct{}{
	"client_id":     {},
	"redirect_uri":  {},
	"response_type": {},
	"scope":         {},
	"state":         {},
}

// ParseAuthorizationParameters reads an authorize query. An omitted scope
// defaults to the profile scope.
func ParseAuthorizationParameters(query url.Values) *AuthorizationParameters {
	params := &AuthorizationParameters{
		ClientID:     query.Get("client_id"),
		RedirectURI:  query.Get("redirect_uri"),
		ResponseType: query.Get("response_type"),
		Scope:        query.Get("scope"),
		State:        query.Get("state"),
		Passthrough:  url.Values{},
	}
	if params.Scope == "" {
		params.Scope = scopes.Default
	}
	for key, values := range query {
		if _, ok := reservedParams[key]; ok {
			continue
		}
		for _, v := range values {
			params.Passthrough.Add(key, v)
		}
	}
	return params
}

// Package scopes is the closed registry of delegated-permission identifiers
// the broker understands. The broker itself only checks membership and
// records granted scope; the descriptions exist for consent surfaces to
// disclose what each grant means.
package scopes

import (
	"sort"
	"strings"
)

// Default is granted when an authorization request omits the scope
// parameter.
const Default = "profile"

// descriptions maps every recognized scope to the capability it discloses.
var descriptions = map[string]string{
	"profile":           "Read your name and basic profile",
	"email":             "Read your email address",
	"phone":             "Read your phone number",
	"wallet:read":       "View your wallet balance",
	"wallet:write":      "Top up and spend from your wallet",
	"cards:read":        "View your linked cards",
	"transactions:read": "View your transaction history",
	"school:connect":    "Link your account to a school-management system",
	"school:manage":     "Manage school integration settings on your behalf",
	"student:sync":      "Sync student records with an integration partner",
	"fee:pay":           "Pay school fees from your wallet",
}

// Recognized reports whether the scope is part of the registry. Unrecognized
// scopes are still passed through the flow; callers use this to flag them
// for manual review.
func Recognized(scope string) bool {
	_, ok := descriptions[scope]
	return ok
}

// Describe returns the human-readable capability for a recognized scope, or
// "" for an unknown one.
func Describe(scope string) string {
	return descriptions[scope]
}

// All returns every registered scope in sorted order.
func All() []string {
	out := make([]string, 0, len(descriptions))
	for s := range descriptions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Split breaks a space-separated scope string into its identifiers,
// dropping empty entries. An empty input yields the default scope.
func Split(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{Default}
	}
	var out []string
	for _, s := range strings.Fields(raw) {
		out = append(out, s)
	}
	return out
}

// Join is the inverse of Split.
func Join(list []string) string {
	return strings.Join(list, " ")
}

// Unrecognized returns the subset of the raw scope string that is not in the
// registry, in request order.
func Unrecognized(raw string) []string {
	var out []string
	for _, s := range Split(raw) {
		if !Recognized(s) {
			out = append(out, s)
		}
	}
	return out
}

// Package sso issues and redeems the one-time cross-domain login tickets
// that let a user's session on one first-party application bootstrap a
// session on another without re-entering credentials.
package sso

import "time"

// TargetExternal marks a ticket that bridges into the OAuth flow instead of
// landing on a first-party application.
const TargetExternal = "external"

// ExtensionVersion is the current shape version of the Extension record.
const ExtensionVersion = 1

// Extension is the typed optional metadata attached to a ticket for
// integration partners. It replaces the untyped JSON bags the first-party
// apps used to smuggle school fields through; consumers check Version
// before reading fields.
type Extension struct {
	Version    int    `json:"version"`
	SchoolID   string `json:"school_id,omitempty"`
	StudentRef string `json:"student_ref,omitempty"`
	PartnerRef string `json:"partner_ref,omitempty"`
}

// Token is a one-time cross-domain login ticket. It is redeemable iff
// UsedAt is nil and the expiry has not passed; redemption sets UsedAt
// exactly once.
type Token struct {
	Token        string     `json:"token"`
	UserID       string     `json:"user_id"`
	SourceApp    string     `json:"source_app"`
	TargetApp    string     `json:"target_app"`
	RedirectPath string     `json:"redirect_path,omitempty"`
	Tier         string     `json:"tier,omitempty"`
	Scope        string     `json:"scope,omitempty"`     // set when bridging into OAuth
	ClientID     string     `json:"client_id,omitempty"` // set when bridging into OAuth
	Extension    *Extension `json:"extension,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Package users is the interface boundary to the user directory. The broker
// never owns user records; it only resolves a user id to the profile fields
// a receiving application needs to bootstrap a local session.
package users

// User carries the directory fields exposed for session bootstrap.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Tier      string `json:"tier,omitempty"`
	Blocked   bool   `json:"blocked,omitempty"`
}

// FullName joins the name fields for display.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

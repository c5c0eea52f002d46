// Package models defines the client-side data model of the SalonMate session
// core: the authenticated user, the session value, and the wire payloads
// exchanged with the remote authority.
package models

import "time"

// User is the identity record returned by the authority.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Session is the client-held authentication state.
//
// IsAuthenticated is derived: it is true iff User, AccessToken and
// RefreshToken are all present. The three fields are always set and
// cleared together.
type Session struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Complete reports whether user and both tokens are present.
func (s Session) Complete() bool {
	return s.User != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// Clone returns a deep copy so callers never share the User pointer with the store.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// Username and Email are both unique — the sqlite schema enforces this with
// UNIQUE constraints, so the repository (not the handlers) is the single
// place where uniqueness is guaranteed.
//
// WHY PasswordHash AND NOT Password?
// The raw password exists only for the duration of a registration or login
// request. What we persist is the bcrypt hash. Naming the field PasswordHash
// makes it impossible to accidentally write code that "compares passwords" —
// there is no plaintext on this struct to compare against.
//
// The `json:"-"` tag means encoding/json will NEVER include the hash in a
// response, even if a handler serializes the whole struct by mistake.
type User struct {
	ID             string    `json:"id"         db:"id"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name"  db:"last_name"`
	Email          string    `json:"email"      db:"email"`    // unique
	Username       string    `json:"username"   db:"username"` // unique
	PasswordHash   string    `json:"-"          db:"password"` // bcrypt hash, never serialized
	AvatarPublicID string    `json:"-"          db:"avatar_public_id"`
	AvatarURL      string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the subset of User echoed back after registration.
// Deliberately narrow: no ID, no avatar references, and of course no hash —
// the registration response only confirms the profile fields that were stored.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

// Profile projects the safe-to-echo registration fields out of a User.
func (u *User) Profile() Profile {
	return Profile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
	}
}

// Session is the payload returned on a successful login: the user's public
// identity fields plus the freshly signed access token. The token always
// comes from the token service at login time — never from storage.
type Session struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// NewSession builds a Session from a user record and a freshly issued token.
func NewSession(u *User, token string) Session {
	return Session{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Username:    u.Username,
		AccessToken: token,
	}
}

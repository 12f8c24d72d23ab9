// Package models holds the records the identity core reads and writes.
package models

import "time"

// User is a registered principal.
//
// ID is the store's internal key (serial id, ObjectID, ...). UserID is the
// public, server-generated identifier. PasswordHash never leaves the core: it
// is excluded from JSON and cleared by Sanitize.
type User struct {
	ID                string           `json:"id,omitempty"`
	UserID            string           `json:"user_id"`
	Username          string           `json:"username"`
	PasswordHash      string           `json:"-"`
	Name              string           `json:"name,omitempty"`
	GivenName         string           `json:"given_name,omitempty"`
	FamilyName        string           `json:"family_name,omitempty"`
	Nickname          string           `json:"nickname,omitempty"`
	Permissions       string           `json:"permissions,omitempty"`
	PhoneNumber       string           `json:"phone_number,omitempty"`
	PhoneVerified     bool             `json:"phone_verified"`
	Picture           string           `json:"picture,omitempty"`
	Email             string           `json:"email,omitempty"`
	EmailVerified     bool             `json:"email_verified"`
	Identities        []map[string]any `json:"identities,omitempty"`
	LastLogin         *time.Time       `json:"last_login,omitempty"`
	LastPasswordReset *time.Time       `json:"last_password_reset,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Sanitize returns the projection that may be embedded in tokens: a copy
// without the password hash and the internal store id.
func (u User) Sanitize() User {
	u.ID = ""
	u.PasswordHash = ""
	return u
}

// UserDraft is the caller-supplied input to registration. Password is the
// plaintext secret; it is hashed before anything is persisted.
type UserDraft struct {
	Username      string
	Password      string
	Email         string
	Name          string
	GivenName     string
	FamilyName    string
	Nickname      string
	Permissions   string
	PhoneNumber   string
	PhoneVerified bool
	Picture       string
	EmailVerified bool
	Identities    []map[string]any
}

// ToUser copies the profile fields of d into a new User. Identifiers,
// timestamps and the password hash are left for the store adapter.
func (d UserDraft) ToUser() *User {
	return &User{
		Username:      d.Username,
		Email:         d.Email,
		Name:          d.Name,
		GivenName:     d.GivenName,
		FamilyName:    d.FamilyName,
		Nickname:      d.Nickname,
		Permissions:   d.Permissions,
		PhoneNumber:   d.PhoneNumber,
		PhoneVerified: d.PhoneVerified,
		Picture:       d.Picture,
		EmailVerified: d.EmailVerified,
		Identities:    d.Identities,
	}
}

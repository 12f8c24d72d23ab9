package models

import "time"

// RefreshToken is a server-side record of an issued refresh token. Records
// are never updated: they are created on login and deleted on logout.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string // internal id of the owning User
	CreatedAt time.Time
	UpdatedAt time.Time
}

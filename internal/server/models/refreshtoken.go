package models

import "time"

// RefreshToken is a server-stored opaque token. Rotation replaces the row;
// a presented token that is absent here has already been rotated or revoked.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

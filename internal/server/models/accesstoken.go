package models

import "time"

// AccessToken is one logged-in client session. A token is live iff IsActive
// and ExpiresAt is in the future. Refresh rotates AccessToken in place and
// keeps the row identity, so revocation by id stays stable across rotations.
type AccessToken struct {
	ID          string
	UserID      string
	ProfileID   string
	AccessToken string
	ClientToken string
	ExpiresAt   time.Time
	IsActive    bool
	LastUsedAt  time.Time
	CreatedAt   time.Time
}

// Live reports whether the token authenticates requests at instant now.
func (t *AccessToken) Live(now time.Time) bool {
	return t.IsActive && t.ExpiresAt.After(now)
}

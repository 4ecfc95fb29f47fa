// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account holder. PasswordHash never leaves the storage boundary;
// IsActive=false disables all authentication for the user's tokens
// immediately.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

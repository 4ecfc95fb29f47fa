package models

import "time"

// Profile is a player's public identity. Name is globally unique, 1-16
// chars. Texture fields are empty strings when no texture is attached;
// SkinModel always holds a value, defaulting to classic.
type Profile struct {
	ID        string
	UserID    string
	Name      string
	SkinHash  string
	SkinURL   string
	SkinModel string
	CapeHash  string
	CapeURL   string
	IsPublic  bool
	CreatedAt time.Time
}

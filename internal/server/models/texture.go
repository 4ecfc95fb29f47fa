package models

import "time"

// Texture is a content-addressed skin or cape image. Hash is the SHA-256 of
// the raw bytes and is the primary key; identical uploads resolve to the
// same row. Rows are immutable once stored. The raw bytes themselves live in
// object storage under the hash.
type Texture struct {
	Hash       string
	Kind       string // "skin" or "cape"
	Width      int
	Height     int
	Model      string // skins only
	UploadedBy string // optional uploader attribution, empty if unknown
	IsPublic   bool
	CreatedAt  time.Time
}

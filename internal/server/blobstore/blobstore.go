// Package blobstore is the byte sink for raw texture images. Objects are
// keyed by content hash, so writes are idempotent and nothing is ever
// overwritten with different content.
package blobstore

import "context"

// Store writes and reads raw texture bytes by key.
type Store interface {
	// Put stores data under key. Writing an existing key again is harmless.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the bytes stored under key, or common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

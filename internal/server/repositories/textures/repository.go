// Package textures declares the repository contract for content-addressed
// texture metadata rows.
package textures

import (
	"context"

	"github.com/polarmc/yggdrasil/internal/server/models"
)

// Repository defines persistence operations for textures.
type Repository interface {
	// Put inserts the texture row if its hash is new. Storing the same hash
	// again is a no-op (deduplication); the bool reports whether a new row
	// was written.
	Put(ctx context.Context, texture *models.Texture) (bool, error)

	// GetByHash returns the texture row, or common.ErrorNotFound.
	GetByHash(ctx context.Context, hash string) (*models.Texture, error)
}

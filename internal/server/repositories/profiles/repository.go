// Package profiles declares the repository contract for player profiles.
package profiles

import (
	"context"

	"github.com/polarmc/yggdrasil/internal/server/models"
)

// Repository defines persistence operations for profiles.
type Repository interface {
	// Create inserts a new profile. Duplicate names yield
	// common.ErrAlreadyExists (name uniqueness is a hard invariant).
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)

	// GetByID looks a profile up by dashed UUID.
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// GetByName looks a profile up by exact name.
	GetByName(ctx context.Context, name string) (*models.Profile, error)

	// ListByUserID returns the user's profiles in creation order. The first
	// element is the deterministic default selection for token binding.
	ListByUserID(ctx context.Context, userID string) ([]*models.Profile, error)

	// UpdateSkin points the profile at a skin texture (or clears it when
	// hash and url are empty; model then resets to classic).
	UpdateSkin(ctx context.Context, profileID, hash, url, model string) error

	// UpdateCape points the profile at a cape texture or clears it.
	UpdateCape(ctx context.Context, profileID, hash, url string) error
}

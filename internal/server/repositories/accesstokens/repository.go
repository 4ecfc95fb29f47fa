// Package accesstokens declares the repository contract for bearer session
// tokens.
package accesstokens

import (
	"context"
	"time"

	"github.com/polarmc/yggdrasil/internal/server/models"
)

// Repository defines operations for issuing, rotating, and revoking access
// tokens. A token is live iff is_active and expires_at is in the future;
// all lookups here are against the live set unless noted.
type Repository interface {
	// Create inserts a freshly minted token row.
	Create(ctx context.Context, token *models.AccessToken) (*models.AccessToken, error)

	// FindLive returns the live token with the given value, or
	// common.ErrorNotFound.
	FindLive(ctx context.Context, accessToken string) (*models.AccessToken, error)

	// Rotate atomically replaces the token value and expiry of the live row
	// matching both values, updating last_used_at. Row identity, user and
	// profile bindings are preserved. Returns the updated row, or
	// common.ErrorNotFound when no live row matches the pair.
	Rotate(ctx context.Context, accessToken, clientToken, newValue string, expiresAt time.Time) (*models.AccessToken, error)

	// Touch bumps last_used_at on the row with the given id.
	Touch(ctx context.Context, id string) error

	// Deactivate flips is_active off for the row matching both values.
	// Matching nothing is not an error (idempotent at the protocol boundary).
	Deactivate(ctx context.Context, accessToken, clientToken string) error

	// DeactivateAllForUser flips is_active off for every token the user owns.
	DeactivateAllForUser(ctx context.Context, userID string) error
}

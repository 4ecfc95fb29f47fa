// Package gamesessions declares the repository contract for one-time
// join/hasJoined correlation records.
package gamesessions

import (
	"context"
	"time"

	"github.com/polarmc/yggdrasil/internal/server/models"
)

// Repository defines persistence operations for game sessions.
type Repository interface {
	// Create inserts a new pending session.
	Create(ctx context.Context, session *models.GameSession) (*models.GameSession, error)

	// DeleteForProfileServer removes any session for the (profile, server)
	// pair; a new join supersedes the previous one.
	DeleteForProfileServer(ctx context.Context, profileID, serverID string) error

	// FindLiveByServer returns the most recent unexpired session for the
	// server id, or common.ErrorNotFound.
	FindLiveByServer(ctx context.Context, serverID string) (*models.GameSession, error)

	// Consume deletes the session by id and reports whether this caller won
	// the delete. A false result means another hasJoined consumed it first.
	Consume(ctx context.Context, id string) (bool, error)

	// DeleteExpired removes sessions whose expiry is before the given
	// instant and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

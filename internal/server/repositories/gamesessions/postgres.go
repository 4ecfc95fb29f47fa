package gamesessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/dbx"
	"github.com/polarmc/yggdrasil/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.GameSession) (*models.GameSession, error) {
	query := `
		INSERT INTO game_sessions (profile_id, server_id, shared_secret, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.ProfileID, session.ServerID, session.SharedSecret, session.IPAddress, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

func (r *PostgresRepository) DeleteForProfileServer(ctx context.Context, profileID, serverID string) error {
	query := `DELETE FROM game_sessions WHERE profile_id = $1 AND server_id = $2`
	if _, err := r.db.ExecContext(ctx, query, profileID, serverID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindLiveByServer(ctx context.Context, serverID string) (*models.GameSession, error) {
	query := `
		SELECT id, profile_id, server_id, shared_secret, ip_address, expires_at, created_at
		FROM game_sessions
		WHERE server_id = $1 AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
	`
	s := &models.GameSession{}
	err := r.db.QueryRowContext(ctx, query, serverID).
		Scan(&s.ID, &s.ProfileID, &s.ServerID, &s.SharedSecret, &s.IPAddress, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Consume reports true only for the single caller whose DELETE removed the
// row, which is what makes a session one-time-use under concurrency.
func (r *PostgresRepository) Consume(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM game_sessions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM game_sessions WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

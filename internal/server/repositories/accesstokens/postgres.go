package accesstokens

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

const tokenColumns = `id, user_id, profile_id, access_token, client_token, expires_at, is_active, last_used_at, created_at`

func (r *PostgresRepository) Create(ctx context.Context, token *models.AccessToken) (*models.AccessToken, error) {
	query := `
		INSERT INTO access_tokens (user_id, profile_id, access_token, client_token, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, last_used_at, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.UserID, token.ProfileID, token.AccessToken, token.ClientToken, token.ExpiresAt).
		Scan(&token.ID, &token.LastUsedAt, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	token.IsActive = true
	return token, nil
}

func (r *PostgresRepository) FindLive(ctx context.Context, accessToken string) (*models.AccessToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM access_tokens
		WHERE access_token = $1 AND is_active AND expires_at > now()
	`
	return scanToken(r.db.QueryRowContext(ctx, query, accessToken))
}

// Rotate runs as a single UPDATE so concurrent rotations of the same token
// cannot interleave: exactly one caller observes the old value.
func (r *PostgresRepository) Rotate(ctx context.Context, accessToken, clientToken, newValue string, expiresAt time.Time) (*models.AccessToken, error) {
	query := `
		UPDATE access_tokens
		SET access_token = $3, expires_at = $4, last_used_at = now()
		WHERE access_token = $1 AND client_token = $2 AND is_active AND expires_at > now()
		RETURNING ` + tokenColumns + `
	`
	return scanToken(r.db.QueryRowContext(ctx, query, accessToken, clientToken, newValue, expiresAt))
}

func (r *PostgresRepository) Touch(ctx context.Context, id string) error {
	query := `UPDATE access_tokens SET last_used_at = now() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, accessToken, clientToken string) error {
	query := `
		UPDATE access_tokens
		SET is_active = FALSE
		WHERE access_token = $1 AND client_token = $2
	`
	if _, err := r.db.ExecContext(ctx, query, accessToken, clientToken); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeactivateAllForUser(ctx context.Context, userID string) error {
	query := `UPDATE access_tokens SET is_active = FALSE WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanToken(row *sql.Row) (*models.AccessToken, error) {
	t := &models.AccessToken{}
	err := row.Scan(&t.ID, &t.UserID, &t.ProfileID, &t.AccessToken, &t.ClientToken,
		&t.ExpiresAt, &t.IsActive, &t.LastUsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

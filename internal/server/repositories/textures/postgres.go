package textures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// Put relies on ON CONFLICT DO NOTHING: rows are immutable once stored, so
// a duplicate hash needs no conflict resolution at all.
func (r *PostgresRepository) Put(ctx context.Context, texture *models.Texture) (bool, error) {
	query := `
		INSERT INTO textures (hash, kind, width, height, model, uploaded_by, is_public)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (hash) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		texture.Hash, texture.Kind, texture.Width, texture.Height, texture.Model,
		texture.UploadedBy, texture.IsPublic)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*models.Texture, error) {
	query := `
		SELECT hash, kind, width, height, model, COALESCE(uploaded_by::text, ''), is_public, created_at
		FROM textures
		WHERE hash = $1
	`
	t := &models.Texture{}
	err := r.db.QueryRowContext(ctx, query, hash).
		Scan(&t.Hash, &t.Kind, &t.Width, &t.Height, &t.Model, &t.UploadedBy, &t.IsPublic, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

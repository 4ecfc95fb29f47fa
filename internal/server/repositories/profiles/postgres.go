package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
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

const profileColumns = `id, user_id, name, skin_hash, skin_url, skin_model, cape_hash, cape_url, is_public, created_at`

func (r *PostgresRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, name, is_public)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		profile.UserID, profile.Name, profile.IsPublic).Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	profile.SkinModel = "classic"
	return profile, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE name = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) ListByUserID(ctx context.Context, userID string) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.SkinHash, &p.SkinURL, &p.SkinModel,
			&p.CapeHash, &p.CapeURL, &p.IsPublic, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateSkin(ctx context.Context, profileID, hash, url, model string) error {
	if model == "" {
		model = "classic"
	}
	query := `
		UPDATE profiles
		SET skin_hash = $2, skin_url = $3, skin_model = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, profileID, hash, url, model)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateCape(ctx context.Context, profileID, hash, url string) error {
	query := `
		UPDATE profiles
		SET cape_hash = $2, cape_url = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, profileID, hash, url)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.SkinHash, &p.SkinURL, &p.SkinModel,
		&p.CapeHash, &p.CapeURL, &p.IsPublic, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

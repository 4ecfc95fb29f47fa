package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/server/models"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("steve@example.com", "Steve", "hashed").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("user-1", now))

	user, err := repo.Create(context.Background(), &models.User{
		Email: "steve@example.com", Username: "Steve", PasswordHash: "hashed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" || !user.IsActive {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestCreateDuplicate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("steve@example.com", "Steve", "hashed").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{
		Email: "steve@example.com", Username: "Steve", PasswordHash: "hashed",
	})
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "username", "password_hash", "is_active", "created_at",
		}).AddRow("user-1", "steve@example.com", "Steve", "hashed", true, now))

	user, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "Steve" || !user.IsActive {
		t.Fatalf("unexpected user: %+v", user)
	}
}

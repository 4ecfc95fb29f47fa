package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs("user-1", "Steve", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("profile-1", now))

	profile, err := repo.Create(context.Background(), &models.Profile{
		UserID: "user-1", Name: "Steve", IsPublic: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.ID != "profile-1" || profile.SkinModel != "classic" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestListByUserID(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "skin_hash", "skin_url", "skin_model",
			"cape_hash", "cape_url", "is_public", "created_at",
		}).
			AddRow("profile-1", "user-1", "Steve", "", "", "classic", "", "", true, now).
			AddRow("profile-2", "user-1", "SteveAlt", "", "", "classic", "", "", false, now.Add(time.Second)))

	list, err := repo.ListByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Steve" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestUpdateSkinDefaultsModel(t *testing.T) {
	repo, mock := newMock(t)

	// empty model must be stored as classic
	mock.ExpectExec("UPDATE profiles").
		WithArgs("profile-1", "", "", "classic").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSkin(context.Background(), "profile-1", "", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateCapeMissingProfile(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE profiles").
		WithArgs("ghost", "h", "u").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCape(context.Background(), "ghost", "h", "u")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

package gamesessions

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

	mock.ExpectQuery("INSERT INTO game_sessions").
		WithArgs("profile-1", "srv-1", "secret", "203.0.113.7", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("sess-1", now))

	session, err := repo.Create(context.Background(), &models.GameSession{
		ProfileID:    "profile-1",
		ServerID:     "srv-1",
		SharedSecret: "secret",
		IPAddress:    "203.0.113.7",
		ExpiresAt:    now.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "sess-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestFindLiveByServer(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM game_sessions").
		WithArgs("srv-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "profile_id", "server_id", "shared_secret", "ip_address", "expires_at", "created_at",
		}).AddRow("sess-1", "profile-1", "srv-1", "secret", "", now.Add(time.Minute), now))

	session, err := repo.FindLiveByServer(context.Background(), "srv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "sess-1" || session.ProfileID != "profile-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestFindLiveByServerNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM game_sessions").
		WithArgs("idle-server").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindLiveByServer(context.Background(), "idle-server")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestConsumeWinnerAndLoser(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("DELETE FROM game_sessions").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.Consume(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !won {
		t.Fatal("first delete should win")
	}

	mock.ExpectExec("DELETE FROM game_sessions").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err = repo.Consume(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if won {
		t.Fatal("second delete must lose")
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock := newMock(t)
	before := time.Now()

	mock.ExpectExec("DELETE FROM game_sessions").
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), before)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("deleted = %d, want 4", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

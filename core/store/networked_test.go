package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return New(gormDB), mock
}

func expectValidation(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func TestNetworked_FindValidatesOnBorrow(t *testing.T) {
	s, mock := setupMockStore(t)
	assert.Equal(t, "networked", s.Engine())

	gameID := uuid.New()
	linkedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	expectValidation(mock)
	mock.ExpectQuery("SELECT \\* FROM `links` WHERE platform_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"platform_id", "game_id", "linked_at"}).
			AddRow("p1", gameID.String(), linkedAt))

	link, err := s.FindByPlatform(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, gameID, link.GameID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNetworked_FailedValidationIsTransient(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("broken pipe"))

	_, err := s.FindByGame(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestNetworked_QueryFailureIsTransient(t *testing.T) {
	s, mock := setupMockStore(t)

	expectValidation(mock)
	mock.ExpectExec("DELETE FROM `links` WHERE platform_id = \\?").
		WillReturnError(errors.New("read timeout"))

	err := s.RemoveLinkByPlatform(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestNetworked_UpsertInsertsInsideTransaction(t *testing.T) {
	s, mock := setupMockStore(t)
	gameID := uuid.New()

	expectValidation(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `links` WHERE platform_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"platform_id", "game_id", "linked_at"}))
	mock.ExpectQuery("SELECT \\* FROM `links` WHERE game_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"platform_id", "game_id", "linked_at"}))
	mock.ExpectExec("INSERT INTO `links`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	link, err := s.UpsertLink(context.Background(), "p1", gameID)
	require.NoError(t, err)
	assert.Equal(t, "p1", link.PlatformID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNetworked_UpsertConflictRollsBack(t *testing.T) {
	s, mock := setupMockStore(t)
	other := uuid.New()

	expectValidation(mock)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `links` WHERE platform_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"platform_id", "game_id", "linked_at"}).
			AddRow("p1", other.String(), time.Now()))
	mock.ExpectRollback()

	_, err := s.UpsertLink(context.Background(), "p1", uuid.New())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

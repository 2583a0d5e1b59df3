package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// sequentialIDs returns a deterministic id generator for tests.
func sequentialIDs(prefix string) utils.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newSessionRepoMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(db, sequentialIDs("sess")), mock
}

func TestSessionCreateRevokesPriorDeviceSessions(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE user_sessions SET revoked=1 WHERE user_id=? AND user_agent=? AND revoked=0")).
		WithArgs("user-1", "Mozilla/5.0").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO user_sessions").
		WithArgs("sess-1", "user-1", "Mozilla/5.0", model.LoginMethodPassword,
			"owner@example.com", "203.0.113.9", "refresh-token-value", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	s := model.Session{
		UserID:       "user-1",
		UserAgent:    "Mozilla/5.0",
		LoginMethod:  model.LoginMethodPassword,
		LoginID:      "owner@example.com",
		IP:           "203.0.113.9",
		RefreshToken: "refresh-token-value",
		ExpiresAt:    time.Now().UTC().Add(30 * 24 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), &s))
	assert.Equal(t, "sess-1", s.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionCreateZeroRowInsertFails(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE user_sessions SET revoked=1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO user_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s := model.Session{UserID: "user-1", UserAgent: "cli"}
	err := repo.Create(context.Background(), &s)
	assert.ErrorIs(t, err, ErrSessionNotCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllWithoutActiveSession(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	mock.ExpectExec("UPDATE user_sessions SET revoked=1").
		WithArgs("user-1", "cli").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeAll(context.Background(), "user-1", "cli")
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsActiveMatchesFullTriple(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	mock.ExpectQuery("SELECT 1 FROM user_sessions").
		WithArgs("user-1", "cli", "tok", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	active, err := repo.IsActive(context.Background(), "user-1", "cli", "tok")
	require.NoError(t, err)
	assert.True(t, active)

	mock.ExpectQuery("SELECT 1 FROM user_sessions").
		WithArgs("user-1", "cli", "other", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	active, err = repo.IsActive(context.Background(), "user-1", "cli", "other")
	require.NoError(t, err)
	assert.False(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByRefreshTokenMissing(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	mock.ExpectQuery("SELECT id, session_id, user_id").
		WithArgs("revoked-token", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindActiveByRefreshToken(context.Background(), "revoked-token")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByRefreshTokenReturnsRow(t *testing.T) {
	repo, mock := newSessionRepoMock(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "user_id", "user_agent", "login_method", "login_id",
		"ip", "refresh_token", "revoked", "expires_at", "created_at",
	}).AddRow(7, "sess-9", "user-1", "cli", model.LoginMethodOTP, "owner@example.com",
		"203.0.113.9", "tok", false, now.Add(time.Hour), now)
	mock.ExpectQuery("SELECT id, session_id, user_id").
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnRows(rows)

	s, err := repo.FindActiveByRefreshToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "sess-9", s.SessionID)
	assert.Equal(t, "user-1", s.UserID)
	assert.False(t, s.Revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

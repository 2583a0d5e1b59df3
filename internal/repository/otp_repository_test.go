package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
)

func newOTPRepoMock(t *testing.T) (*OTPRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOTPRepo(db), mock
}

func TestOTPVerifyReturnsMatch(t *testing.T) {
	repo, mock := newOTPRepoMock(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "otp", "login_type", "login_id", "expires_at", "created_at"}).
		AddRow(1, "otp-sess-1", "482913", model.LoginTypeEmail, "owner@example.com", now.Add(4*time.Minute), now)
	mock.ExpectQuery("SELECT id, session_id, otp").
		WithArgs("otp-sess-1", "482913", sqlmock.AnyArg()).
		WillReturnRows(rows)

	o, err := repo.Verify(context.Background(), "otp-sess-1", "482913")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", o.LoginID)
	assert.Equal(t, model.LoginTypeEmail, o.LoginType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The lookup itself filters on expires_at, so an expired code produces no row
// even when session id and code are both correct.
func TestOTPVerifyExpiredCodeNeverMatches(t *testing.T) {
	repo, mock := newOTPRepoMock(t)

	mock.ExpectQuery("SELECT id, session_id, otp").
		WithArgs("otp-sess-1", "482913", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Verify(context.Background(), "otp-sess-1", "482913")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindResetTokenKeepsExpiredRow(t *testing.T) {
	repo, mock := newOTPRepoMock(t)

	expired := time.Now().UTC().Add(-time.Minute)
	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
		AddRow(3, "user-1", "reset-tok", expired, expired.Add(-15*time.Minute))
	mock.ExpectQuery("SELECT id, user_id, token").
		WithArgs("reset-tok").
		WillReturnRows(rows)

	// The repo hands back the row even past expiry; the caller decides.
	tok, err := repo.FindResetToken(context.Background(), "reset-tok")
	require.NoError(t, err)
	assert.True(t, time.Now().UTC().After(tok.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteResetToken(t *testing.T) {
	repo, mock := newOTPRepoMock(t)

	mock.ExpectExec("DELETE FROM password_reset_tokens").
		WithArgs("reset-tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteResetToken(context.Background(), "reset-tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

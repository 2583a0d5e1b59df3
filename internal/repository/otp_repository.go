package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
)

// OTPRepo persists one-time passwords and password-reset tokens. OTP rows are
// never deleted after use; the expiry comparison in lookups is the only
// invalidation path.
type OTPRepo struct {
	DB *sql.DB
}

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Store inserts an OTP row correlated with a pending login session id.
func (r *OTPRepo) Store(ctx context.Context, o *model.OTP) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO otps (session_id, otp, login_type, login_id, expires_at) VALUES (?,?,?,?,?)",
		o.SessionID, o.Code, o.LoginType, o.LoginID, o.ExpiresAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("otp not stored")
	}
	return nil
}

// Verify returns the OTP row matching (session, code) that has not yet
// expired. An expired row never matches regardless of code correctness.
func (r *OTPRepo) Verify(ctx context.Context, sessionID, code string) (model.OTP, error) {
	var o model.OTP
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, session_id, otp, login_type, login_id, expires_at, created_at
		 FROM otps
		 WHERE session_id=? AND otp=? AND expires_at>?
		 ORDER BY id DESC LIMIT 1`,
		sessionID, code, time.Now().UTC()).
		Scan(&o.ID, &o.SessionID, &o.Code, &o.LoginType, &o.LoginID, &o.ExpiresAt, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.OTP{}, ErrNotFound
	}
	return o, err
}

// StoreResetToken inserts a password-reset token row.
func (r *OTPRepo) StoreResetToken(ctx context.Context, t *model.PasswordResetToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		t.UserID, t.Token, t.ExpiresAt)
	return err
}

// FindResetToken fetches a reset token row by value without checking expiry.
// Callers compare ExpiresAt themselves; a failed attempt leaves the row in
// place.
func (r *OTPRepo) FindResetToken(ctx context.Context, token string) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM password_reset_tokens WHERE token=? LIMIT 1",
		token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PasswordResetToken{}, ErrNotFound
	}
	return t, err
}

// DeleteResetToken removes a reset token immediately after successful use.
func (r *OTPRepo) DeleteResetToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE token=?", token)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// SessionRepo persists device sessions in the user_sessions table. A session
// row carries the serialized refresh token so the auth gate can validate a
// presented token against revocation state by exact lookup.
type SessionRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewSessionRepo(db *sql.DB, ids utils.IDGenerator) *SessionRepo {
	return &SessionRepo{DB: db, NewID: ids}
}

// Create revokes every prior non-revoked session for (user, user-agent) and
// inserts the new row. Both statements run inside one transaction so a
// concurrent request can never observe two active sessions for the same
// device. On success s.SessionID is populated and exactly one active session
// exists for the pair.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Unconditional revocation; a no-op when the device has no prior session.
	if _, err := tx.ExecContext(ctx,
		"UPDATE user_sessions SET revoked=1 WHERE user_id=? AND user_agent=? AND revoked=0",
		s.UserID, s.UserAgent); err != nil {
		return err
	}

	s.SessionID = r.NewID()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO user_sessions
		 (session_id, user_id, user_agent, login_method, login_id, ip, refresh_token, expires_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.SessionID, s.UserID, s.UserAgent, s.LoginMethod, s.LoginID, s.IP, s.RefreshToken, s.ExpiresAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotCreated
	}
	return tx.Commit()
}

// RevokeAll marks every non-revoked session for (user, user-agent) as revoked.
// Returns ErrNoActiveSession when nothing was affected; the logout contract
// does not distinguish "never logged in" from "already logged out".
func (r *SessionRepo) RevokeAll(ctx context.Context, userID, userAgent string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET revoked=1 WHERE user_id=? AND user_agent=? AND revoked=0",
		userID, userAgent)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoActiveSession
	}
	return nil
}

// IsActive reports whether a non-revoked, unexpired session exists matching
// the full (user, user-agent, refresh token) triple.
func (r *SessionRepo) IsActive(ctx context.Context, userID, userAgent, refreshToken string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM user_sessions
		 WHERE user_id=? AND user_agent=? AND refresh_token=? AND revoked=0 AND expires_at>?
		 LIMIT 1`,
		userID, userAgent, refreshToken, time.Now().UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindActiveByRefreshToken looks up a session by exact refresh-token value,
// requiring revoked=0 and a future expiry. The auth gate uses this during
// single-request access-token renewal.
func (r *SessionRepo) FindActiveByRefreshToken(ctx context.Context, refreshToken string) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, user_agent, login_method, login_id, ip, refresh_token, revoked, expires_at, created_at
		 FROM user_sessions
		 WHERE refresh_token=? AND revoked=0 AND expires_at>?
		 LIMIT 1`,
		refreshToken, time.Now().UTC()).
		Scan(&s.ID, &s.SessionID, &s.UserID, &s.UserAgent, &s.LoginMethod, &s.LoginID,
			&s.IP, &s.RefreshToken, &s.Revoked, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	return s, err
}

package model

import "time"

// Login method values recorded on a session row.
const (
	LoginMethodPassword = "password"
	LoginMethodOTP      = "otp"
)

// DeviceUnknown is the sentinel stored when a request carries no user-agent
// or no resolvable client IP.
const DeviceUnknown = "Unknown"

// Session is one authenticated device/browser for a user, persisted in
// `user_sessions`. At most one active (non-revoked, non-expired) session
// exists per (UserID, UserAgent) pair; creating a new session revokes all
// prior ones for that pair.
type Session struct {
	ID           uint64    // user_sessions.id
	SessionID    string    // user_sessions.session_id
	UserID       string    // user_sessions.user_id (users.unique_id)
	UserAgent    string    // user_sessions.user_agent
	LoginMethod  string    // user_sessions.login_method (password | otp)
	LoginID      string    // user_sessions.login_id (email or mobile used to log in)
	IP           string    // user_sessions.ip
	RefreshToken string    // user_sessions.refresh_token (serialized JWT, revocation lookup key)
	Revoked      bool      // user_sessions.revoked
	ExpiresAt    time.Time // user_sessions.expires_at
	CreatedAt    time.Time // user_sessions.created_at
}

// DeviceContext carries the request attributes a session is keyed on.
type DeviceContext struct {
	UserAgent string
	IP        string
}

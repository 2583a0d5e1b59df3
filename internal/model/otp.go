package model

import "time"

// Login identifier types accepted by the auth endpoints.
const (
	LoginTypeEmail  = "email"
	LoginTypeMobile = "mobile"
)

// OTP is an ephemeral login credential stored in `otps`. SessionID correlates
// the code with a pending login (the otp_session_id cookie), not with a
// Session row. Rows are never deleted; expiry is the only invalidation path.
type OTP struct {
	ID        uint64    // otps.id
	SessionID string    // otps.session_id
	Code      string    // otps.otp
	LoginType string    // otps.login_type (email | mobile)
	LoginID   string    // otps.login_id
	ExpiresAt time.Time // otps.expires_at
	CreatedAt time.Time // otps.created_at
}

// PasswordResetToken is a one-time token stored in `password_reset_tokens`.
// Deleted immediately after successful use, otherwise left to expire.
type PasswordResetToken struct {
	ID        uint64    // password_reset_tokens.id
	UserID    string    // password_reset_tokens.user_id
	Token     string    // password_reset_tokens.token
	ExpiresAt time.Time // password_reset_tokens.expires_at
	CreatedAt time.Time // password_reset_tokens.created_at
}

// Package notify abstracts outbound email/SMS dispatch for OTP codes and
// password-reset links.
package notify

import "context"

// Sender delivers one-time codes and reset links to a login identifier.
// Production wires an email/SMS gateway behind this interface; dev and tests
// use LogSender.
type Sender interface {
	SendOTP(ctx context.Context, loginType, loginID, code string) error
	SendResetLink(ctx context.Context, email, token string) error
}

package notify

import (
	"context"
	"log"
)

// LogSender writes outbound messages to the process log instead of
// dispatching them. Useful in dev where no mail/SMS gateway is configured.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) SendOTP(ctx context.Context, loginType, loginID, code string) error {
	log.Printf("notify: OTP for %s %s: %s", loginType, loginID, code)
	return nil
}

func (s *LogSender) SendResetLink(ctx context.Context, email, token string) error {
	log.Printf("notify: password reset token for %s: %s", email, token)
	return nil
}

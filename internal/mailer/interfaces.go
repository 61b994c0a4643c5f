package mailer

import "context"

// Service delivers one-time passcodes to a user's email address.
type Service interface {
	SendOtp(ctx context.Context, toEmail, code string) error
}

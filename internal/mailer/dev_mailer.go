package mailer

import (
	"context"

	"github.com/imagebox/imagebox/pkg/logger"
)

// DevMailer prints codes to the log instead of sending email.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendOtp(ctx context.Context, toEmail, code string) error {
	logger.InfoContext(ctx, "[DEV MAIL] OTP email",
		"to", toEmail,
		"code", code,
	)
	return nil
}

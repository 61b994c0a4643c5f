package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendOtp(ctx context.Context, toEmail, code string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Verify your ImageBox account"
	html := fmt.Sprintf(`
		<h2>Verify Your Email</h2>
		<p>Hello,</p>
		<p>Please use the code below to verify your ImageBox account:</p>
		<p><strong style="font-size: 24px;">%s</strong></p>
		<p>This code is valid for 5 minutes. Please do not share it with anyone.</p>
		<p>If you didn't request this, please ignore this email.</p>
	`, code)
	text := fmt.Sprintf("Your ImageBox verification code is: %s\n\nThis code is valid for 5 minutes.", code)

	return m.sendEmail(ctx, toEmail, subject, text, html)
}

func (m *MailerSendClient) sendEmail(ctx context.Context, toEmail, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}

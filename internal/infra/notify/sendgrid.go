package notify

import (
	"context"
	"fmt"

	"parkgate/internal/pkg/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// NewSendGridSender returns nil when no API key is configured; the composite
// notifier skips the email channel in that case.
func NewSendGridSender(cfg config.NotifyConfig) *SendGridSender {
	if cfg.SendGridKey == "" {
		return nil
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridKey),
		fromName: cfg.FromName,
		fromAddr: cfg.FromEmail,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("email rejected with status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

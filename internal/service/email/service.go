package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
)

// Sender delivers a rendered message and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, msg domain.EmailMessage) (string, error)
}

type resendSender struct {
	client *resend.Client
	from   string
}

func NewSender(cfg *config.Config) Sender {
	return &resendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
	}
}

func (s *resendSender) Send(ctx context.Context, msg domain.EmailMessage) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.New("email has no recipients")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

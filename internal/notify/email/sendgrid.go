package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sampark/sampark/internal/config"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridTransport delivers mail through the SendGrid v3 HTTP API.
type SendGridTransport struct {
	config *config.EmailConfig
	client *sendgrid.Client
}

func NewSendGridTransport(cfg *config.EmailConfig) *SendGridTransport {
	return &SendGridTransport{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(fromName(t.config), t.config.FromEmail)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	// SendGrid accepts mail for delivery with 202.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// SMTPTransport delivers mail through an SMTP server.
type SMTPTransport struct {
	config *config.EmailConfig
}

func NewSMTPTransport(cfg *config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{config: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	server := mail.NewSMTPClient()
	server.Host = t.config.SMTPHost
	server.Port = t.config.SMTPPort
	server.Username = t.config.Username
	server.Password = t.config.Password

	switch {
	case t.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case t.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}
	if t.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	client, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName(t.config), t.config.FromEmail)).
		AddTo(msg.To).
		SetSubject(msg.Subject)
	email.SetBody(mail.TextHTML, msg.HTML)
	if msg.Text != "" {
		email.AddAlternative(mail.TextPlain, msg.Text)
	}
	if email.Error != nil {
		return fmt.Errorf("failed to build email: %w", email.Error)
	}

	return email.Send(client)
}

func fromName(cfg *config.EmailConfig) string {
	if cfg.FromName != "" {
		return cfg.FromName
	}
	return defaultFromName
}

package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/config"
)

// ErrNoRecipient is returned when a message has no recipient address.
var ErrNoRecipient = errors.New("recipient email is empty")

const defaultFromName = "Sampark"

//go:embed templates/*.html
var templatesFS embed.FS

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers a single message. Implementations make exactly one attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders participant emails and hands them to a Transport.
type Mailer struct {
	config      *config.EmailConfig
	frontendURL string
	transport   Transport
	templates   *template.Template
}

// New creates a Mailer using the transport selected in cfg.
func New(cfg *config.EmailConfig, frontendURL string) (*Mailer, error) {
	if cfg == nil || !cfg.Enabled {
		return NewWithTransport(cfg, frontendURL, nil)
	}

	var transport Transport
	switch cfg.Transport {
	case config.EmailTransportSendGrid:
		transport = NewSendGridTransport(cfg)
	case config.EmailTransportSMTP, "":
		transport = NewSMTPTransport(cfg)
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
	return NewWithTransport(cfg, frontendURL, transport)
}

// NewWithTransport creates a Mailer delivering through t.
func NewWithTransport(cfg *config.EmailConfig, frontendURL string, t Transport) (*Mailer, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Mailer{
		config:      cfg,
		frontendURL: frontendURL,
		transport:   t,
		templates:   tmpl,
	}, nil
}

// Enabled reports whether mails are actually delivered.
func (m *Mailer) Enabled() bool {
	return m.config != nil && m.config.Enabled && m.transport != nil
}

type credentialsData struct {
	AppName            string
	RegistrationNumber string
	Password           string
	LoginURL           string
}

type registrationData struct {
	AppName            string
	Name               string
	RegistrationNumber string
}

// SendCredentials mails the login credentials of a newly approved participant.
func (m *Mailer) SendCredentials(ctx context.Context, to, registrationNumber, password string) error {
	app := m.appName()
	data := credentialsData{
		AppName:            app,
		RegistrationNumber: registrationNumber,
		Password:           password,
		LoginURL:           m.frontendURL + "/login",
	}
	text := fmt.Sprintf("Your %s registration has been approved.\n\nRegistration Number: %s\nPassword: %s\n\nLogin at %s\n",
		app, registrationNumber, password, data.LoginURL)
	return m.send(ctx, to, fmt.Sprintf("Welcome to %s - Your Login Credentials", app), "credentials.html", data, text)
}

// SendRegistrationConfirmation acknowledges a registration that awaits review.
func (m *Mailer) SendRegistrationConfirmation(ctx context.Context, to, name, registrationNumber string) error {
	app := m.appName()
	data := registrationData{
		AppName:            app,
		Name:               name,
		RegistrationNumber: registrationNumber,
	}
	text := fmt.Sprintf("Dear %s,\n\nThank you for registering for %s.\nYour Registration Number: %s\n\nYou will receive your login credentials once your registration is approved.\n",
		name, app, registrationNumber)
	return m.send(ctx, to, fmt.Sprintf("Registration Received - %s Event", app), "registration.html", data, text)
}

func (m *Mailer) send(ctx context.Context, to, subject, tmpl string, data any, text string) error {
	if !m.Enabled() {
		log.Debug("Email notifications are disabled, skipping email", "subject", subject)
		return nil
	}
	if to == "" {
		return ErrNoRecipient
	}

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl, err)
	}

	msg := Message{To: to, Subject: subject, HTML: buf.String(), Text: text}
	if err := m.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info("Email sent", "to", to, "subject", subject)
	return nil
}

func (m *Mailer) appName() string {
	if m.config != nil && m.config.FromName != "" {
		return m.config.FromName
	}
	return defaultFromName
}

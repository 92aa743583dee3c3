package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/sampark/sampark/internal/config"
)

// Event subjects, relative to the configured prefix.
const (
	SubjectRegistrationCreated  = "registration.created"
	SubjectRegistrationApproved = "registration.approved"
	SubjectRegistrationRejected = "registration.rejected"
	SubjectConnectionCreated    = "connection.created"
	SubjectUserDeleted          = "user.deleted"
)

// UserEvent is published for registration lifecycle changes and deletions.
type UserEvent struct {
	UserID             uint      `json:"user_id"`
	RegistrationNumber string    `json:"registration_number"`
	Name               string    `json:"name"`
	Status             string    `json:"status"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// ConnectionEvent is published once per new relationship.
type ConnectionEvent struct {
	UserID          uint      `json:"user_id"`
	ConnectedUserID uint      `json:"connected_user_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// New returns a NATS publisher when events are enabled and a no-op publisher otherwise.
func New(cfg *config.EventsConfig) (Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(cfg)
}

// NATSPublisher publishes JSON encoded events to core NATS.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(cfg *config.EventsConfig) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("sampark"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("Connected to NATS", "url", conn.ConnectedUrl())
	return &NATSPublisher{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

func (p *NATSPublisher) subject(s string) string {
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn == nil || p.conn.IsClosed() {
		return nats.ErrConnectionClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	full := p.subject(subject)
	if err := p.conn.Publish(full, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", full, err)
	}
	log.Debug("Published event", "subject", full)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }

package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/config"
)

// Client pushes admin alerts to a ntfy topic.
type Client struct {
	serverURL  string
	topic      string
	username   string
	password   string
	token      string
	httpClient *http.Client
}

// Message represents a ntfy message.
type Message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Click    string   `json:"click,omitempty"`
}

// NewClient creates a new ntfy client.
func NewClient(cfg *config.NtfyConfig) *Client {
	return &Client{
		serverURL: cfg.ServerURL,
		topic:     cfg.Topic,
		username:  cfg.Username,
		password:  cfg.Password,
		token:     cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage publishes msg to the configured topic.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if c.topic != "" {
		msg.Topic = c.topic
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Markdown", "yes")

	// Token takes precedence over username/password.
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		if len(detail) > 0 {
			return fmt.Errorf("ntfy server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		}
		return fmt.Errorf("ntfy server returned status %d", resp.StatusCode)
	}

	log.Debug("Sent ntfy notification", "topic", msg.Topic, "title", msg.Title)
	return nil
}

// SendNewRegistration tells admins that a registration awaits review.
func (c *Client) SendNewRegistration(ctx context.Context, name, registrationNumber, organization, reviewURL string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**Name:** %s\n", name)
	fmt.Fprintf(&b, "**Registration Number:** %s\n", registrationNumber)
	if organization != "" {
		fmt.Fprintf(&b, "**Organization:** %s\n", organization)
	}
	b.WriteString("\nPlease review this registration in the admin panel.")

	return c.SendMessage(ctx, Message{
		Title:    "New Registration",
		Message:  b.String(),
		Priority: 3,
		Tags:     []string{"sampark", "registration"},
		Click:    reviewURL,
	})
}

// SendPendingDigest summarizes registrations still waiting for approval.
// Nothing is sent when names is empty.
func (c *Client) SendPendingDigest(ctx context.Context, names []string, reviewURL string) error {
	if len(names) == 0 {
		log.Debug("No pending registrations, skipping ntfy digest")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Pending registrations:** %d\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	return c.SendMessage(ctx, Message{
		Title:    "Pending Registrations",
		Message:  b.String(),
		Priority: 4,
		Tags:     []string{"sampark", "digest"},
		Click:    reviewURL,
	})
}

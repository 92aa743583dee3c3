package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

type HistoryEventType string

const (
	HistoryEventRegistered HistoryEventType = "registered"
	HistoryEventApproved   HistoryEventType = "approved"
	HistoryEventRejected   HistoryEventType = "rejected"
	HistoryEventConnected  HistoryEventType = "connected"
	HistoryEventDeleted    HistoryEventType = "deleted"
)

// defaultHistoryLimit is used when GetHistory is called without a positive limit.
const defaultHistoryLimit = 100

// HistoryEvent is an append only audit record. Rows outlive the users they reference.
type HistoryEvent struct {
	ID        uint             `gorm:"primaryKey"`
	EventType HistoryEventType `gorm:"size:32;index;not null"`
	UserID    uint             `gorm:"index"`
	ActorID   *uint
	Details   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (c *Client) CreateHistoryEvent(ctx context.Context, event HistoryEvent) error {
	if err := c.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Error("failed to create history event", "type", event.EventType, "error", err)
		return err
	}
	return nil
}

// GetHistory returns the newest events first.
func (c *Client) GetHistory(ctx context.Context, limit int) ([]HistoryEvent, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var events []HistoryEvent
	if err := c.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		log.Error("failed to get history", "error", err)
		return nil, err
	}
	return events, nil
}

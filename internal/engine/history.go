package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/database"
)

// recordHistory appends an audit event. Failures are logged only.
func (e *Engine) recordHistory(ctx context.Context, eventType database.HistoryEventType, userID uint, actorID *uint, details string) {
	event := database.HistoryEvent{
		EventType: eventType,
		UserID:    userID,
		ActorID:   actorID,
		Details:   details,
	}
	if err := e.db.CreateHistoryEvent(ctx, event); err != nil {
		log.Error("failed to record history event", "type", eventType, "user_id", userID, "error", err)
	}
}

func (e *Engine) recordRegistered(ctx context.Context, user *database.User) {
	e.recordHistory(ctx, database.HistoryEventRegistered, user.ID, nil, user.RegistrationNumber)
}

func (e *Engine) recordApproved(ctx context.Context, user *database.User, adminID uint) {
	e.recordHistory(ctx, database.HistoryEventApproved, user.ID, &adminID, user.RegistrationNumber)
}

func (e *Engine) recordRejected(ctx context.Context, user *database.User, adminID uint) {
	e.recordHistory(ctx, database.HistoryEventRejected, user.ID, &adminID, user.RegistrationNumber)
}

func (e *Engine) recordConnected(ctx context.Context, userID, otherID uint) {
	e.recordHistory(ctx, database.HistoryEventConnected, userID, &userID, fmt.Sprintf("connected_user_id=%d", otherID))
}

func (e *Engine) recordDeleted(ctx context.Context, user *database.User, adminID uint) {
	e.recordHistory(ctx, database.HistoryEventDeleted, user.ID, &adminID, fmt.Sprintf("%s <%s>", user.RegistrationNumber, user.Email))
}

// History returns the most recent audit events.
func (e *Engine) History(ctx context.Context, limit int) ([]database.HistoryEvent, error) {
	return e.db.GetHistory(ctx, limit)
}

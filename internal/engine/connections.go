package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sampark/sampark/internal/database"
	"github.com/sampark/sampark/internal/events"
)

// Connect records a mutual connection between the caller and the scanned participant.
// It reports false when the two are already connected in either direction.
func (e *Engine) Connect(ctx context.Context, userID uint, scannedRegistrationNumber, notes string) (bool, error) {
	scannedRegistrationNumber = strings.TrimSpace(scannedRegistrationNumber)
	if scannedRegistrationNumber == "" {
		return false, fmt.Errorf("%w: scanned_registration_number is required", ErrInvalidInput)
	}

	scanned, err := e.db.GetUserByRegistrationNumber(ctx, scannedRegistrationNumber)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	if scanned.ID == userID {
		return false, ErrSelfConnection
	}

	created, err := e.db.CreateConnectionPair(ctx, userID, scanned.ID, strings.TrimSpace(notes))
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	e.recordConnected(ctx, userID, scanned.ID)
	e.publish(ctx, events.SubjectConnectionCreated, events.ConnectionEvent{
		UserID:          userID,
		ConnectedUserID: scanned.ID,
		OccurredAt:      time.Now(),
	})
	return true, nil
}

// ListConnections returns the caller's edges, newest first, with the peer profile loaded.
func (e *Engine) ListConnections(ctx context.Context, userID uint) ([]database.Connection, error) {
	return e.db.GetConnectionsByUser(ctx, userID)
}

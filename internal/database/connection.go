package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// errConnectionExists aborts the pair insert transaction when an edge is already present.
var errConnectionExists = errors.New("connection already exists")

// Connection is a directed edge: UserID scanned, or was scanned by, ConnectedUserID.
// Every relationship is stored as two rows, one owned by each party.
type Connection struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_connection_pair"`
	ConnectedUserID uint      `gorm:"not null;uniqueIndex:idx_connection_pair;index"`
	ConnectedAt     time.Time `gorm:"autoCreateTime"`
	Notes           string    `gorm:"type:text"`
	ConnectedUser   User      `gorm:"foreignKey:ConnectedUserID;constraint:OnDelete:CASCADE;"`
}

// ConnectionExists reports whether an edge exists in either direction.
func (c *Client) ConnectionExists(ctx context.Context, userID, otherID uint) (bool, error) {
	return connectionExists(c.db.WithContext(ctx), userID, otherID)
}

func connectionExists(tx *gorm.DB, userID, otherID uint) (bool, error) {
	var count int64
	err := tx.Model(&Connection{}).
		Where("(user_id = ? AND connected_user_id = ?) OR (user_id = ? AND connected_user_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error
	if err != nil {
		log.Error("failed to check connection", "error", err)
		return false, err
	}
	return count > 0, nil
}

// CreateConnectionPair inserts userID->otherID and otherID->userID.
// Notes are stored on the caller's edge only. It returns false without error
// if the relationship already exists, including when a concurrent insert wins
// the race on the unique pair index.
func (c *Client) CreateConnectionPair(ctx context.Context, userID, otherID uint, notes string) (bool, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := connectionExists(tx, userID, otherID)
		if err != nil {
			return err
		}
		if exists {
			return errConnectionExists
		}

		pair := []Connection{
			{UserID: userID, ConnectedUserID: otherID, Notes: notes},
			{UserID: otherID, ConnectedUserID: userID},
		}
		return tx.Omit("ConnectedUser").Create(&pair).Error
	})

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errConnectionExists), isUniqueViolation(err):
		return false, nil
	default:
		log.Error("failed to create connection", "error", err)
		return false, err
	}
}

// GetConnectionsByUser returns the edges owned by userID with the peer profile loaded.
func (c *Client) GetConnectionsByUser(ctx context.Context, userID uint) ([]Connection, error) {
	var connections []Connection
	if err := c.db.WithContext(ctx).
		Preload("ConnectedUser").
		Preload("ConnectedUser.Themes").
		Where("user_id = ?", userID).
		Order("connected_at DESC, id DESC").
		Find(&connections).Error; err != nil {
		log.Error("failed to get connections", "error", err)
		return nil, err
	}
	return connections, nil
}

func (c *Client) CountConnectionsByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Connection{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		log.Error("failed to count connections", "error", err)
		return 0, err
	}
	return count, nil
}

// CountConnections returns the number of edges, which is twice the number of relationships.
func (c *Client) CountConnections(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&Connection{}).Count(&count).Error; err != nil {
		log.Error("failed to count connections", "error", err)
		return 0, err
	}
	return count, nil
}

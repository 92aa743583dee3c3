package database

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Theme is a free text interest tag owned by a single user.
type Theme struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Name      string `gorm:"size:100;index;not null"`
	CreatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE;"`
}

// ThemeCount is the number of participants that picked a theme.
type ThemeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (c *Client) GetThemesByUser(ctx context.Context, userID uint) ([]Theme, error) {
	var themes []Theme
	if err := c.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&themes).Error; err != nil {
		log.Error("failed to get themes by user", "error", err)
		return nil, err
	}
	return themes, nil
}

// GetThemesByName returns all theme rows with the given name and their owners.
func (c *Client) GetThemesByName(ctx context.Context, name string) ([]Theme, error) {
	var themes []Theme
	if err := c.db.WithContext(ctx).Preload("User").Where("name = ?", name).Order("id").Find(&themes).Error; err != nil {
		log.Error("failed to get themes by name", "error", err)
		return nil, err
	}
	return themes, nil
}

func (c *Client) CountThemes(ctx context.Context) ([]ThemeCount, error) {
	var counts []ThemeCount
	if err := c.db.WithContext(ctx).
		Model(&Theme{}).
		Select("name, count(user_id) as count").
		Group("name").
		Order("name").
		Scan(&counts).Error; err != nil {
		log.Error("failed to count themes", "error", err)
		return nil, err
	}
	return counts, nil
}

// replaceThemes deletes every theme of the user and inserts names in order.
// Blank and repeated names are skipped.
func replaceThemes(tx *gorm.DB, userID uint, names []string) error {
	if err := tx.Where("user_id = ?", userID).Delete(&Theme{}).Error; err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(names))
	themes := make([]Theme, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		themes = append(themes, Theme{UserID: userID, Name: name})
	}
	if len(themes) == 0 {
		return nil
	}
	return tx.Create(&themes).Error
}

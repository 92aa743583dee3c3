package engine

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/database"
)

// GetProfile returns the caller's own profile including themes.
func (e *Engine) GetProfile(ctx context.Context, userID uint) (*database.User, error) {
	user, err := e.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// UpdateProfile overwrites the provided profile fields of the caller.
func (e *Engine) UpdateProfile(ctx context.Context, userID uint, update database.ProfileUpdate) (*database.User, error) {
	user, err := e.db.UpdateUserProfile(ctx, userID, update)
	if err != nil {
		return nil, translate(err)
	}

	e.cache.InvalidateProfile(ctx, user.RegistrationNumber)
	if update.Themes != nil {
		e.cache.InvalidateThemes(ctx)
	}
	return user, nil
}

// Scan returns the public profile behind a badge. Only approved participants are visible.
func (e *Engine) Scan(ctx context.Context, registrationNumber string) (*database.User, error) {
	if registrationNumber == "" {
		return nil, ErrNotFound
	}

	if cached, err := e.cache.Profiles.Get(ctx, registrationNumber); err == nil {
		return &cached, nil
	}

	user, err := e.db.GetUserByRegistrationNumber(ctx, registrationNumber)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.Status != database.UserStatusApproved {
		return nil, ErrNotFound
	}

	if err := e.cache.Profiles.Set(ctx, registrationNumber, *user); err != nil {
		log.Debug("failed to cache profile", "registration_number", registrationNumber, "error", err)
	}
	return user, nil
}

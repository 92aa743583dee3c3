package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/auth"
	"github.com/sampark/sampark/internal/database"
	"github.com/sampark/sampark/internal/events"
)

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Organization string
}

// Register creates a pending participant with a fresh registration number.
// The confirmation email and the admin alert are best effort.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*database.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	user := &database.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Organization: strings.TrimSpace(in.Organization),
		Status:       database.UserStatusPending,
	}
	if err := e.db.RegisterUser(ctx, user, e.cfg.RegistrationPrefix); err != nil {
		return nil, translate(err)
	}
	log.Info("New registration", "registration_number", user.RegistrationNumber, "user_id", user.ID)

	e.recordRegistered(ctx, user)
	e.publish(ctx, events.SubjectRegistrationCreated, userEvent(user))

	if err := e.mailer.SendRegistrationConfirmation(ctx, user.Email, user.Name, user.RegistrationNumber); err != nil {
		log.Error("failed to send registration confirmation", "registration_number", user.RegistrationNumber, "error", err)
	}
	if e.notifier != nil {
		if err := e.notifier.SendNewRegistration(ctx, user.Name, user.RegistrationNumber, user.Organization, e.adminURL()); err != nil {
			log.Warn("failed to notify admins about registration", "error", err)
		}
	}

	return user, nil
}

// ListPending returns all registrations awaiting review.
func (e *Engine) ListPending(ctx context.Context) ([]database.User, error) {
	return e.db.GetUsersByStatus(ctx, database.UserStatusPending)
}

// ListUsers returns every participant.
func (e *Engine) ListUsers(ctx context.Context) ([]database.User, error) {
	return e.db.GetAllUsers(ctx)
}

// Approve issues a temporary password, marks the user approved and emails the credentials.
// The approval is committed before the email is sent; a mail failure is only logged.
func (e *Engine) Approve(ctx context.Context, adminID, userID uint) (*database.User, error) {
	password, err := auth.GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := e.db.ApproveUser(ctx, userID, hash)
	if err != nil {
		return nil, translate(err)
	}
	log.Info("Registration approved", "registration_number", user.RegistrationNumber, "admin_id", adminID)

	e.cache.InvalidateProfile(ctx, user.RegistrationNumber)
	e.recordApproved(ctx, user, adminID)
	e.publish(ctx, events.SubjectRegistrationApproved, userEvent(user))

	if err := e.mailer.SendCredentials(ctx, user.Email, user.RegistrationNumber, password); err != nil {
		log.Error("failed to send credentials email", "registration_number", user.RegistrationNumber, "error", err)
	}

	return user, nil
}

// Reject marks the user rejected.
func (e *Engine) Reject(ctx context.Context, adminID, userID uint) (*database.User, error) {
	user, err := e.db.SetUserStatus(ctx, userID, database.UserStatusRejected)
	if err != nil {
		return nil, translate(err)
	}
	log.Info("Registration rejected", "registration_number", user.RegistrationNumber, "admin_id", adminID)

	e.cache.InvalidateProfile(ctx, user.RegistrationNumber)
	e.recordRejected(ctx, user, adminID)
	e.publish(ctx, events.SubjectRegistrationRejected, userEvent(user))
	return user, nil
}

// DeleteUser removes a participant together with their themes and connections.
func (e *Engine) DeleteUser(ctx context.Context, adminID, userID uint) (*database.User, error) {
	if adminID == userID {
		return nil, fmt.Errorf("%w: admins cannot delete their own account", ErrInvalidInput)
	}

	user, err := e.db.DeleteUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	log.Info("User deleted", "registration_number", user.RegistrationNumber, "admin_id", adminID)

	e.cache.InvalidateProfile(ctx, user.RegistrationNumber)
	e.cache.InvalidateThemes(ctx)
	e.recordDeleted(ctx, user, adminID)
	e.publish(ctx, events.SubjectUserDeleted, userEvent(user))
	return user, nil
}

// Login checks the credentials of an approved participant and issues an access token.
func (e *Engine) Login(ctx context.Context, registrationNumber, password string) (string, *database.User, error) {
	registrationNumber = strings.TrimSpace(registrationNumber)
	if registrationNumber == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := e.db.GetUserByRegistrationNumber(ctx, registrationNumber)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	// A wrong password never reveals the account status. Pending users have
	// no hash yet and are told they are not approved.
	if user.PasswordHash != "" && !auth.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status != database.UserStatusApproved {
		return "", nil, ErrNotApproved
	}
	if user.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}

	token, err := e.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	log.Debug("User logged in", "registration_number", user.RegistrationNumber)
	return token, user, nil
}

func userEvent(u *database.User) events.UserEvent {
	return events.UserEvent{
		UserID:             u.ID,
		RegistrationNumber: u.RegistrationNumber,
		Name:               u.Name,
		Status:             string(u.Status),
		OccurredAt:         time.Now(),
	}
}

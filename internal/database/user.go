package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAlreadyExists is returned when a unique field of a new record is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// maxRegisterAttempts bounds how often RegisterUser regenerates a registration
// number after losing an insert race to a concurrent registration.
const maxRegisterAttempts = 5

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// User represents an event participant.
// PasswordHash stays empty until an admin approves the registration.
type User struct {
	ID                 uint       `gorm:"primaryKey"`
	Name               string     `gorm:"size:100;not null"`
	Email              string     `gorm:"size:120;uniqueIndex;not null"`
	Phone              string     `gorm:"size:20"`
	Organization       string     `gorm:"size:100"`
	RegistrationNumber string     `gorm:"size:20;uniqueIndex;not null"`
	PasswordHash       string     `gorm:"size:255" json:"-"`
	Bio                string     `gorm:"type:text"`
	Interests          string     `gorm:"type:text"`
	LinkedIn           string     `gorm:"column:linkedin;size:200"`
	Twitter            string     `gorm:"size:200"`
	Status             UserStatus `gorm:"size:20;index;not null"`
	IsAdmin            bool       `gorm:"not null;default:false"`
	IsDignitary        bool       `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Themes             []Theme      `gorm:"constraint:OnDelete:CASCADE;"`
	Connections        []Connection `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

// ThemeNames returns the names of the loaded themes.
func (u *User) ThemeNames() []string {
	names := make([]string, 0, len(u.Themes))
	for _, t := range u.Themes {
		names = append(names, t.Name)
	}
	return names
}

// ProfileUpdate holds the user editable profile fields.
// Nil fields are left untouched. A non-nil Themes replaces the whole theme set.
type ProfileUpdate struct {
	Bio       *string
	Interests *string
	LinkedIn  *string
	Twitter   *string
	Themes    *[]string
}

// CreateUser inserts the user as is.
func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	return nil
}

// RegisterUser assigns the next registration number for prefix and inserts the user.
// A unique index on registration_number guards against concurrent registrations,
// a conflict triggers a fresh number.
func (c *Client) RegisterUser(ctx context.Context, user *User, prefix string) error {
	if _, err := c.GetUserByEmail(ctx, user.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxRegisterAttempts; attempt++ {
		number, err := c.GenerateRegistrationNumber(ctx, prefix)
		if err != nil {
			return err
		}
		user.RegistrationNumber = number

		err = c.db.WithContext(ctx).Create(user).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			log.Error("failed to register user", "error", err)
			return err
		}

		// Either the email or the number was taken in the meantime.
		if _, lookupErr := c.GetUserByEmail(ctx, user.Email); lookupErr == nil {
			return ErrDuplicateEmail
		}
		log.Warn("registration number collision, retrying", "number", number, "attempt", attempt+1)
		user.ID = 0
		lastErr = err
	}
	return fmt.Errorf("failed to allocate registration number after %d attempts: %w", maxRegisterAttempts, lastErr)
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Themes").First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

func (c *Client) GetUserByRegistrationNumber(ctx context.Context, registrationNumber string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Preload("Themes").Where("registration_number = ?", registrationNumber).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by registration number", "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

func (c *Client) GetUsersByStatus(ctx context.Context, status UserStatus) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&users).Error; err != nil {
		log.Error("failed to get users by status", "status", status, "error", err)
		return nil, err
	}
	return users, nil
}

func (c *Client) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		log.Error("failed to get all users", "error", err)
		return nil, err
	}
	return users, nil
}

// ApproveUser stores the password hash and marks the user approved in a single update.
func (c *Client) ApproveUser(ctx context.Context, id uint, passwordHash string) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Updates(map[string]any{
			"password_hash": passwordHash,
			"status":        UserStatusApproved,
		}).Error; err != nil {
			return err
		}
		user.PasswordHash = passwordHash
		user.Status = UserStatusApproved
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to approve user", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

func (c *Client) SetUserStatus(ctx context.Context, id uint, status UserStatus) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("status", status).Error; err != nil {
			return err
		}
		user.Status = status
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to update user status", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateUserProfile applies update and, when requested, replaces the theme set.
func (c *Client) UpdateUserProfile(ctx context.Context, id uint, update ProfileUpdate) (*User, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		fields := map[string]any{}
		if update.Bio != nil {
			fields["bio"] = *update.Bio
		}
		if update.Interests != nil {
			fields["interests"] = *update.Interests
		}
		if update.LinkedIn != nil {
			fields["linkedin"] = *update.LinkedIn
		}
		if update.Twitter != nil {
			fields["twitter"] = *update.Twitter
		}
		if len(fields) > 0 {
			if err := tx.Model(&user).Updates(fields).Error; err != nil {
				return err
			}
		}

		if update.Themes != nil {
			return replaceThemes(tx, id, *update.Themes)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to update user profile", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return c.GetUserByID(ctx, id)
}

// DeleteUser removes the user together with its themes and both directions of its connections.
func (c *Client) DeleteUser(ctx context.Context, id uint) (*User, error) {
	var user User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR connected_user_id = ?", id, id).Delete(&Connection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&Theme{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to delete user", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return &user, nil
}

func (c *Client) CountUsersByStatus(ctx context.Context) (map[UserStatus]int64, error) {
	var rows []struct {
		Status UserStatus
		Count  int64
	}
	if err := c.db.WithContext(ctx).Model(&User{}).Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		log.Error("failed to count users by status", "error", err)
		return nil, err
	}

	counts := map[UserStatus]int64{
		UserStatusPending:  0,
		UserStatusApproved: 0,
		UserStatusRejected: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sampark/sampark/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// DB is the persistence interface used by the engine.
type DB interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	RegisterUser(ctx context.Context, user *User, prefix string) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByRegistrationNumber(ctx context.Context, registrationNumber string) (*User, error)
	GetUsersByStatus(ctx context.Context, status UserStatus) ([]User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	ApproveUser(ctx context.Context, id uint, passwordHash string) (*User, error)
	SetUserStatus(ctx context.Context, id uint, status UserStatus) (*User, error)
	UpdateUserProfile(ctx context.Context, id uint, update ProfileUpdate) (*User, error)
	DeleteUser(ctx context.Context, id uint) (*User, error)
	CountUsersByStatus(ctx context.Context) (map[UserStatus]int64, error)
	GenerateRegistrationNumber(ctx context.Context, prefix string) (string, error)

	// Themes
	GetThemesByUser(ctx context.Context, userID uint) ([]Theme, error)
	GetThemesByName(ctx context.Context, name string) ([]Theme, error)
	CountThemes(ctx context.Context) ([]ThemeCount, error)

	// Connections
	ConnectionExists(ctx context.Context, userID, otherID uint) (bool, error)
	CreateConnectionPair(ctx context.Context, userID, otherID uint, notes string) (bool, error)
	GetConnectionsByUser(ctx context.Context, userID uint) ([]Connection, error)
	CountConnectionsByUser(ctx context.Context, userID uint) (int64, error)
	CountConnections(ctx context.Context) (int64, error)

	// History
	CreateHistoryEvent(ctx context.Context, event HistoryEvent) error
	GetHistory(ctx context.Context, limit int) ([]HistoryEvent, error)

	Close() error
}

var _ DB = (*Client)(nil) // Ensure Client implements DB

// Client wraps the gorm.DB instance.
type Client struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a new database connection and performs migrations.
func New(cfg *config.DatabaseConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == config.DatabaseDriverSQLite || cfg.Driver == "" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &Client{db: db, now: time.Now}, nil
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Theme{},
		&Connection{},
		&HistoryEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func newDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), nil
	case config.DatabaseDriverMySQL:
		return mysql.Open(cfg.DSN), nil
	case config.DatabaseDriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// notFound translates gorm's not found error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err was caused by a unique constraint.
// Not every dialector translates its errors, so the message is checked as well.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

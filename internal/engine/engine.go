package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/auth"
	"github.com/sampark/sampark/internal/cache"
	"github.com/sampark/sampark/internal/config"
	"github.com/sampark/sampark/internal/database"
	"github.com/sampark/sampark/internal/events"
	"github.com/sampark/sampark/internal/notify/email"
	"github.com/sampark/sampark/internal/notify/ntfy"
	"github.com/sampark/sampark/internal/scheduler"
)

var (
	// ErrNotFound indicates that the requested participant does not exist or is not visible.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates that the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidInput indicates a malformed or incomplete request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials indicates an unknown registration number or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotApproved indicates that the account has not been approved yet.
	ErrNotApproved = errors.New("account not approved yet")
	// ErrSelfConnection indicates that a participant scanned their own badge.
	ErrSelfConnection = errors.New("cannot connect to yourself")
)

// Mailer sends participant emails.
type Mailer interface {
	SendCredentials(ctx context.Context, to, registrationNumber, password string) error
	SendRegistrationConfirmation(ctx context.Context, to, name, registrationNumber string) error
}

// AdminNotifier pushes alerts to admins.
type AdminNotifier interface {
	SendNewRegistration(ctx context.Context, name, registrationNumber, organization, reviewURL string) error
	SendPendingDigest(ctx context.Context, names []string, reviewURL string) error
}

// Engine implements the Sampark operations on top of the database.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	tokens    *auth.TokenService
	mailer    Mailer
	notifier  AdminNotifier
	events    events.Publisher
	cache     *cache.AppCache
	scheduler *scheduler.Scheduler
	started   bool
}

// Option overrides a dependency created by New.
type Option func(*Engine)

func WithMailer(m Mailer) Option { return func(e *Engine) { e.mailer = m } }

func WithNotifier(n AdminNotifier) Option { return func(e *Engine) { e.notifier = n } }

func WithPublisher(p events.Publisher) Option { return func(e *Engine) { e.events = p } }

func WithCache(c *cache.AppCache) Option { return func(e *Engine) { e.cache = c } }

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB, opts ...Option) (*Engine, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		db:        db,
		tokens:    tokens,
		scheduler: sched,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.mailer == nil {
		mailer, err := email.New(cfg.Email, cfg.FrontendURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create mailer: %w", err)
		}
		e.mailer = mailer
	}

	if e.notifier == nil && cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		e.notifier = ntfy.NewClient(cfg.Ntfy)
	}

	if e.events == nil {
		publisher, err := events.New(cfg.Events)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		e.events = publisher
	}

	if e.cache == nil {
		appCache, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}
		e.cache = appCache
	}

	if err := e.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return e, nil
}

// Run starts the background jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	e.started = true
	<-ctx.Done()
	return nil
}

// Close stops the scheduler and releases the event connection.
func (e *Engine) Close() error {
	var errs []error
	if e.started {
		errs = append(errs, e.scheduler.Stop())
	}
	errs = append(errs, e.events.Close())
	return errors.Join(errs...)
}

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// GetCache returns the application cache.
func (e *Engine) GetCache() *cache.AppCache {
	return e.cache
}

// VerifyToken validates a bearer or raw access token.
func (e *Engine) VerifyToken(raw string) (*auth.Claims, bool) {
	return e.tokens.Verify(raw)
}

func (e *Engine) adminURL() string {
	return e.cfg.FrontendURL + "/admin"
}

func (e *Engine) publish(ctx context.Context, subject string, payload any) {
	if err := e.events.Publish(ctx, subject, payload); err != nil {
		log.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// translate maps persistence errors onto engine errors.
func translate(err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrDuplicateEmail):
		return ErrDuplicateEmail
	default:
		return err
	}
}

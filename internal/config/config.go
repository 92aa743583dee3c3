package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type EmailTransport string

const (
	EmailTransportSMTP     EmailTransport = "smtp"
	EmailTransportSendGrid EmailTransport = "sendgrid"
)

// Config holds the configuration for the Sampark server and its dependencies.
type Config struct {
	// Listen is the address the Sampark server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// FrontendURL is the base URL of the participant portal. It is linked from emails.
	FrontendURL string `yaml:"frontend_url" mapstructure:"frontend_url"`
	// JWTSecret is the shared secret used to sign access tokens.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// TokenTTL is how long an issued access token stays valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// RegistrationPrefix is prepended to the year and sequence of every registration number.
	RegistrationPrefix string `yaml:"registration_prefix" mapstructure:"registration_prefix"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Email holds the email notification configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Ntfy holds the ntfy notification configuration used for admin alerts.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// CORS holds the cross origin configuration for browser clients.
	CORS *CORSConfig `yaml:"cors" mapstructure:"cors"`
	// RateLimit holds the rate limit configuration for public endpoints.
	RateLimit *RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// Events holds the domain event publisher configuration.
	Events *EventsConfig `yaml:"events" mapstructure:"events"`
	// Digest holds the configuration of the pending registration digest job.
	Digest *DigestConfig `yaml:"digest" mapstructure:"digest"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver selects the gorm dialector: sqlite, mysql or postgres.
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the database file (sqlite only).
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the connection string for mysql and postgres.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// EmailConfig holds the email notification configuration.
type EmailConfig struct {
	// Enabled indicates whether email notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Transport selects how mails are delivered: smtp or sendgrid.
	Transport EmailTransport `yaml:"transport" mapstructure:"transport"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// SendGridAPIKey is the API key for the SendGrid HTTP API.
	SendGridAPIKey string `yaml:"sendgrid_api_key" mapstructure:"sendgrid_api_key"`
	// FromEmail is the email address from which notifications are sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which notifications are sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic admins are subscribed to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username is the ntfy username for authentication.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the ntfy password for authentication.
	Password string `yaml:"password" mapstructure:"password"`
	// Token is the ntfy token for authentication.
	Token string `yaml:"token" mapstructure:"token"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TTL is how long scanned profiles and theme aggregates are cached.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// CORSConfig holds the cross origin resource sharing configuration.
type CORSConfig struct {
	// AllowedOrigins lists the browser origins allowed to call /api.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// RateLimitConfig holds the per client rate limit for public endpoints.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// EventsConfig holds the configuration of the NATS event publisher.
type EventsConfig struct {
	// Enabled indicates whether domain events are published.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// NatsURL is the URL of the NATS server.
	NatsURL string `yaml:"nats_url" mapstructure:"nats_url"`
	// SubjectPrefix is prepended to every event subject.
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// DigestConfig holds the configuration of the pending registration digest.
type DigestConfig struct {
	// Enabled indicates whether the digest job is scheduled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Schedule is the cron schedule of the digest (e.g., "0 9 * * *").
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// If no config file is found, defaults and environment variables are used.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SAMPARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		// Use specific config file
		v.SetConfigFile(path)
	} else {
		// Search for config in common locations
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sampark")
		v.AddConfigPath("/etc/sampark")
	}

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the SAMPARK_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 30*24*time.Hour)
	v.SetDefault("registration_prefix", "SAMP")

	// Database defaults
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/sampark.db")
	v.SetDefault("database.dsn", "")

	// Email defaults
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.transport", EmailTransportSMTP)
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "Sampark")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("email.insecure_skip_verify", false)

	// Ntfy defaults
	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "sampark-admin")
	v.SetDefault("ntfy.username", "")
	v.SetDefault("ntfy.password", "")
	v.SetDefault("ntfy.token", "")

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 5*time.Minute)

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:5174"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("events.subject_prefix", "sampark")

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.schedule", "0 9 * * *") // Every day at 09:00
}

var (
	gravatarDefaultImages = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	gravatarRatings       = []string{"g", "pg", "r", "x"}
)

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing sampark config")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be greater than 0")
	}
	if c.RegistrationPrefix == "" {
		return fmt.Errorf("registration prefix is required")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseDriverMySQL, DatabaseDriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required when using %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Email != nil && c.Email.Enabled {
		if c.Email.FromEmail == "" {
			return fmt.Errorf("from email is required when email is enabled")
		}
		switch c.Email.Transport {
		case EmailTransportSMTP:
			if c.Email.SMTPHost == "" {
				return fmt.Errorf("SMTP host is required when the smtp transport is used") //nolint:staticcheck
			}
		case EmailTransportSendGrid:
			if c.Email.SendGridAPIKey == "" {
				return fmt.Errorf("sendgrid api key is required when the sendgrid transport is used")
			}
		default:
			return fmt.Errorf("unknown email transport %q", c.Email.Transport)
		}
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
			TTL:  5 * time.Minute,
		}
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.DefaultImage != "" && !slices.Contains(gravatarDefaultImages, c.Gravatar.DefaultImage) {
			return fmt.Errorf("invalid gravatar default image %q", c.Gravatar.DefaultImage)
		}
		if c.Gravatar.Rating != "" && !slices.Contains(gravatarRatings, c.Gravatar.Rating) {
			return fmt.Errorf("invalid gravatar rating %q", c.Gravatar.Rating)
		}
		if c.Gravatar.Size < 0 || c.Gravatar.Size > 2048 {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	if c.RateLimit != nil && c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests per second must be greater than 0")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be greater than 0")
		}
	}

	if c.Events != nil && c.Events.Enabled && c.Events.NatsURL == "" {
		return fmt.Errorf("nats url is required when events are enabled")
	}

	if c.Digest != nil && c.Digest.Enabled {
		// Basic validation for cron format (5 fields)
		if len(strings.Fields(c.Digest.Schedule)) != 5 {
			return fmt.Errorf("digest schedule must be a valid cron expression with 5 fields (minute hour day month weekday)")
		}
		if c.Ntfy == nil || !c.Ntfy.Enabled {
			log.Warn("digest is enabled but ntfy is disabled, digests will only be logged")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)
	c.FrontendURL = urlSanitize(c.FrontendURL)
	c.RegistrationPrefix = strings.ToUpper(strings.TrimSpace(c.RegistrationPrefix))

	if c.Ntfy != nil {
		c.Ntfy.ServerURL = urlSanitize(c.Ntfy.ServerURL)
	}

	if c.CORS != nil {
		for i, origin := range c.CORS.AllowedOrigins {
			c.CORS.AllowedOrigins[i] = urlSanitize(origin)
		}
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

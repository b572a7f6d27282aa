package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"     validate:"required"`
	App      AppConfig      `mapstructure:"app"      validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains token and password hashing settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,gtfield=TokenLifetimeMinutes"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
}

// JobsConfig tunes the background job runner.
type JobsConfig struct {
	WorkerCount         int `mapstructure:"worker_count"          validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size"            validate:"gte=1"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"gte=1"`
	StuckJobAgeMinutes  int `mapstructure:"stuck_job_age_minutes" validate:"gte=1"`
	MaxAttempts         int `mapstructure:"max_attempts"          validate:"gte=1"`
	RetryDelaySeconds   int `mapstructure:"retry_delay_seconds"   validate:"gte=0"`
}

// MailConfig selects and configures the outgoing mail transport.
type MailConfig struct {
	Backend      string `mapstructure:"backend"       validate:"required,oneof=smtp log"`
	From         string `mapstructure:"from"          validate:"required"`
	SMTPHost     string `mapstructure:"smtp_host"     validate:"required_if=Backend smtp"`
	SMTPPort     int    `mapstructure:"smtp_port"     validate:"omitempty,gt=0,lt=65536"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

// AppConfig holds user-facing settings shared by mail and web pages.
type AppConfig struct {
	BaseURL         string `mapstructure:"base_url"         validate:"required,url"`
	DisplayTimezone string `mapstructure:"display_timezone" validate:"required"`
}

// Location resolves DisplayTimezone. Load has already verified it.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SecureCookies reports whether the site is served over TLS.
func (c AppConfig) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.BaseURL), "https://")
}

// RedisConfig configures the optional login rate limiter. An empty URL
// disables it.
type RedisConfig struct {
	URL                string `mapstructure:"url"                  validate:"omitempty,url"`
	LoginLimit         int    `mapstructure:"login_limit"          validate:"gte=1"`
	LoginWindowSeconds int    `mapstructure:"login_window_seconds" validate:"gte=1"`
}

// LoginWindow returns the rate limit window as a duration.
func (c RedisConfig) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowSeconds) * time.Second
}

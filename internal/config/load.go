package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // display timezones must resolve on minimal images

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "TASKHUB"

// keys lists every setting so that env-only deployments unmarshal fully.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout_seconds",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"auth.refresh_token_lifetime_minutes",
	"auth.bcrypt_cost",
	"jobs.worker_count",
	"jobs.queue_size",
	"jobs.poll_interval_seconds",
	"jobs.stuck_job_age_minutes",
	"jobs.max_attempts",
	"jobs.retry_delay_seconds",
	"mail.backend",
	"mail.from",
	"mail.smtp_host",
	"mail.smtp_port",
	"mail.smtp_username",
	"mail.smtp_password",
	"app.base_url",
	"app.display_timezone",
	"redis.url",
	"redis.login_limit",
	"redis.login_window_seconds",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 30)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.token_lifetime_minutes", 15)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 24*60)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("jobs.worker_count", 2)
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.poll_interval_seconds", 5)
	v.SetDefault("jobs.stuck_job_age_minutes", 30)
	v.SetDefault("jobs.max_attempts", 3)
	v.SetDefault("jobs.retry_delay_seconds", 60)

	v.SetDefault("mail.backend", "log")
	v.SetDefault("mail.from", "TaskHub <noreply@taskhub.local>")
	v.SetDefault("mail.smtp_port", 587)

	v.SetDefault("app.base_url", "http://localhost:8000")
	v.SetDefault("app.display_timezone", "Asia/Seoul")

	v.SetDefault("redis.login_limit", 10)
	v.SetDefault("redis.login_window_seconds", 60)
}

// Load reads configuration from the environment and ./config.yaml if present.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path looks for
// config.yaml in the working directory and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.App.DisplayTimezone); err != nil {
		return nil, fmt.Errorf("config validation failed: unknown display timezone %q: %w",
			cfg.App.DisplayTimezone, err)
	}

	return &cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LookupEnv is os.LookupEnv for a config key.
func LookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvName(key))
}

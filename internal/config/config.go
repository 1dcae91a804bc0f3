package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidTimerStore           = errors.New("session.timer_store must be postgres or memory")
)

// Timer stores.
const (
	TimerStorePostgres = "postgres"
	TimerStoreMemory   = "memory"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"`      // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`        // Telegram API token loaded from environment
	AdminAPIToken    string  `mapstructure:"-"`        // bearer token of the admin HTTP API
	AdminIDs         []int64 `mapstructure:"-"`        // Telegram IDs allowed to administer tests
	DB               DB      `mapstructure:"database"` // database configuration section
	HTTP             HTTP    `mapstructure:"http"`     // admin HTTP API
	Session          Session `mapstructure:"session"`  // test session behaviour
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// HTTP configures the admin API server.
type HTTP struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	MaxUploadMiB int64         `mapstructure:"max_upload_mib"`
}

// Session configures test sessions.
type Session struct {
	TickInterval       time.Duration `mapstructure:"tick_interval"`        // how often running timers are polled
	SubmitTimeout      time.Duration `mapstructure:"submit_timeout"`       // limit for one submission
	TimerStore         string        `mapstructure:"timer_store"`          // postgres or memory
	StaleDeadlineAfter time.Duration `mapstructure:"stale_deadline_after"` // grace before abandoned deadlines are purged
	SweepSchedule      string        `mapstructure:"sweep_schedule"`       // cron spec of the deadline sweeper
	HistoryLimit       int           `mapstructure:"history_limit"`        // attempts shown by /history
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// IsAdmin reports whether the Telegram user may administer tests.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// Load variables from .env if present; real environment wins.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.max_upload_mib", 5)
	v.SetDefault("session.tick_interval", "1s")
	v.SetDefault("session.submit_timeout", "10s")
	v.SetDefault("session.timer_store", TimerStorePostgres)
	v.SetDefault("session.stale_deadline_after", "24h")
	v.SetDefault("session.sweep_schedule", "*/15 * * * *")
	v.SetDefault("session.history_limit", 10)
	v.SetDefault("admin_ids", "")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("admin_api_token", "ADMIN_API_TOKEN")
	_ = v.BindEnv("admin_ids", "ADMIN_IDS")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	switch cfg.Session.TimerStore {
	case TimerStorePostgres, TimerStoreMemory:
	default:
		return nil, ErrInvalidTimerStore
	}

	adminIDs, err := parseIDs(v.GetStringSlice("admin_ids"))
	if err != nil {
		return nil, fmt.Errorf("error parsing admin_ids: %w", err)
	}
	cfg.AdminIDs = adminIDs

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.AdminAPIToken = v.GetString("admin_api_token")
	if cfg.AdminAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}

// parseIDs accepts a YAML list or a comma separated env value.
func parseIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q: %w", part, err)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

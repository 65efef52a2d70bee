package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the HomePulse service.
// Environment variables are parsed from the HOMEPULSE_ prefix.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8099"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"/data/homepulse.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Home Assistant connection. The Supervisor proxies the core API and
	// injects SUPERVISOR_TOKEN into the add-on environment.
	HomeAssistantURL string `envconfig:"HA_URL" default:"http://supervisor/core"`
	SupervisorURL    string `envconfig:"SUPERVISOR_URL" default:"http://supervisor"`
	SupervisorToken  string `envconfig:"SUPERVISOR_TOKEN" default:""`

	// Generation API
	GeminiAPIKey             string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiBaseURL            string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiModel              string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GenerationTemperature    float64 `envconfig:"GENERATION_TEMPERATURE" default:"0.4"`
	GenerationMaxTokens      int     `envconfig:"GENERATION_MAX_TOKENS" default:"16384"`
	GenerationTimeoutSeconds int     `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"120"`

	// Scheduling
	SnapshotIntervalMinutes int    `envconfig:"SNAPSHOT_INTERVAL_MINUTES" default:"30"`
	HistoryDays             int    `envconfig:"HISTORY_DAYS" default:"7"`
	DigestTime              string `envconfig:"DIGEST_TIME" default:"07:00"`
	WeeklyDigestEnabled     bool   `envconfig:"WEEKLY_DIGEST" default:"true"`

	// Notifications
	NotificationService string `envconfig:"NOTIFICATION_SERVICE" default:"persistent_notification.create"`
}

// ResolveDefaults validates derived settings after env parsing.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN required when DB_DRIVER=postgres")
	}
	if _, _, err := c.DigestClock(); err != nil {
		return err
	}
	if c.SnapshotIntervalMinutes < 1 || c.SnapshotIntervalMinutes > 59 {
		return fmt.Errorf("SNAPSHOT_INTERVAL_MINUTES must be within [1,59], got %d", c.SnapshotIntervalMinutes)
	}
	// The Supervisor injects the token without any prefix; honor it when
	// the prefixed variable is unset.
	if c.SupervisorToken == "" {
		if tok := os.Getenv("SUPERVISOR_TOKEN"); tok != "" {
			c.SupervisorToken = tok
		} else if tok := os.Getenv("HASSIO_TOKEN"); tok != "" {
			c.SupervisorToken = tok
		}
	}
	return nil
}

// DigestClock parses DIGEST_TIME ("HH:MM") into hour and minute.
func (c *Config) DigestClock() (hour, minute int, err error) {
	parts := strings.SplitN(c.DigestTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid DIGEST_TIME %q, expected HH:MM", c.DigestTime)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid DIGEST_TIME hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid DIGEST_TIME minute %q", parts[1])
	}
	return hour, minute, nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with HOMEPULSE_, e.g. HOMEPULSE_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HOMEPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("ha_url", cfg.HomeAssistantURL).
		Str("gemini_model", cfg.GeminiModel).
		Str("digest_time", cfg.DigestTime).
		Int("snapshot_interval_minutes", cfg.SnapshotIntervalMinutes).
		Int("history_days", cfg.HistoryDays).
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

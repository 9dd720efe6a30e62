package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for wings-of-wisdom
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Content  ContentConfig  `envPrefix:"CONTENT_"`
	Chat     ChatConfig     `envPrefix:"CHAT_"`
	Quiz     QuizConfig     `envPrefix:"QUIZ_"`
	Event    EventConfig    `envPrefix:"EVENT_"`
	Search   SearchConfig   `envPrefix:"SEARCH_"`
	Cleanup  CleanupConfig  `envPrefix:"CLEANUP_"`
	Admin    AdminConfig    `envPrefix:"ADMIN_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// DatabaseConfig selects and configures the repository backend
type DatabaseConfig struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"file:wings-of-wisdom.db?_pragma=busy_timeout(5000)"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"2"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Address  string `env:"ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// ContentConfig points at an optional override directory
type ContentConfig struct {
	Dir string `env:"DIR"`
}

// ChatConfig holds chat assistant configuration
type ChatConfig struct {
	APIKey       string        `env:"API_KEY"`
	BaseURL      string        `env:"BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model        string        `env:"MODEL" envDefault:"openai/gpt-3.5-turbo"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
	MaxTokens    int           `env:"MAX_TOKENS" envDefault:"80"`
	Temperature  float64       `env:"TEMPERATURE" envDefault:"0.7"`
	SiteURL      string        `env:"SITE_URL"`
	SiteName     string        `env:"SITE_NAME" envDefault:"Wings of Wisdom"`
	TTL          time.Duration `env:"CONVERSATION_TTL" envDefault:"24h"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"50"`
}

// Enabled reports whether the remote assistant is configured
func (c ChatConfig) Enabled() bool {
	return c.APIKey != ""
}

// QuizConfig holds quiz session configuration
type QuizConfig struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"2h"`
}

// EventConfig holds the ceremony countdown target
type EventConfig struct {
	CeremonyAt time.Time `env:"CEREMONY_AT" envDefault:"2025-12-10T16:30:00+01:00"`
}

// SearchConfig holds live search configuration
type SearchConfig struct {
	Debounce time.Duration `env:"DEBOUNCE" envDefault:"300ms"`
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"5m"`
}

// AdminConfig seeds the API client allowed to read the contact inbox
type AdminConfig struct {
	Name   string `env:"NAME" envDefault:"admin"`
	APIKey string `env:"API_KEY"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// SlogLevel maps the configured level to slog
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom loads configuration from the given variables instead of the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("invalid chat timeout: %s", c.Chat.Timeout)
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("invalid chat temperature: %v", c.Chat.Temperature)
	}

	if c.Chat.TTL <= 0 {
		return fmt.Errorf("invalid chat conversation ttl: %s", c.Chat.TTL)
	}

	if c.Chat.HistoryLimit < 2 {
		return fmt.Errorf("chat history limit must be at least 2, got %d", c.Chat.HistoryLimit)
	}

	if c.Quiz.SessionTTL <= 0 {
		return fmt.Errorf("invalid quiz session ttl: %s", c.Quiz.SessionTTL)
	}

	if c.Search.Debounce < 0 {
		return fmt.Errorf("invalid search debounce: %s", c.Search.Debounce)
	}

	if c.Admin.APIKey != "" && len(c.Admin.APIKey) < 16 {
		return fmt.Errorf("admin api key must be at least 16 characters")
	}

	if c.Cleanup.Interval <= 0 {
		return fmt.Errorf("invalid cleanup interval: %s", c.Cleanup.Interval)
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

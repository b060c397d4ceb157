package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN    string
	OTelEndpoint string
	OTelInsecure bool

	// LLM collaborator ("openai", "gemini" or "none")
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	LLMModel      string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	// Workflow preferences applied to every chat message
	ExportFormat     string
	AutoExport       bool
	IncludeTemplates bool

	// Conversation memory
	HistoryLimit     int
	HistoryCacheSize int

	// Limits
	ChatRateLimit  int
	ChatRateWindow time.Duration
	GoalLimit      int // <= 0 means unlimited

	// Attachment storage (optional, S3-compatible)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

// Load reads .env and the environment. Invalid configuration stops the process.
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Parse builds the configuration from environment variables.
func Parse() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		AppName: p.string("APP_NAME", "Goalcoach"),
		AppEnv:  p.required("APP_ENV"), // 'development' or 'production'
		AppURL:  p.string("APP_URL", "http://localhost:8090"),
		Port:    p.string("PORT", "8090"),

		DBDriver:     p.string("DB_DRIVER", "sqlite"),
		DBConnection: p.string("DB_CONNECTION", "./data/goalcoach.db"),

		SentryDSN:    p.string("SENTRY_DSN", ""),
		OTelEndpoint: p.string("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure: p.bool("OTEL_INSECURE", false),

		LLMProvider:   strings.ToLower(p.string("LLM_PROVIDER", "none")),
		OpenAIAPIKey:  p.string("OPENAI_API_KEY", ""),
		OpenAIBaseURL: p.string("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:  p.string("GEMINI_API_KEY", ""),
		LLMModel:      p.string("LLM_MODEL", ""),
		LLMTimeout:    p.duration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxRetries: p.int("LLM_MAX_RETRIES", 2),

		ExportFormat:     strings.ToLower(p.string("EXPORT_FORMAT", "markdown")),
		AutoExport:       p.bool("AUTO_EXPORT", true),
		IncludeTemplates: p.bool("INCLUDE_TEMPLATES", true),

		HistoryLimit:     p.int("HISTORY_LIMIT", 10),
		HistoryCacheSize: p.int("HISTORY_CACHE_SIZE", 1024),

		ChatRateLimit:  p.int("CHAT_RATE_LIMIT", 30),
		ChatRateWindow: p.duration("CHAT_RATE_WINDOW", time.Minute),
		GoalLimit:      p.int("GOAL_LIMIT", 25),

		S3Region:        p.string("S3_REGION", "us-east-1"),
		S3Bucket:        p.string("S3_BUCKET", ""),
		S3AccessKey:     p.string("S3_ACCESS_KEY", ""),
		S3SecretKey:     p.string("S3_SECRET_KEY", ""),
		S3Endpoint:      p.string("S3_ENDPOINT", ""),
		S3PresignExpiry: p.duration("S3_PRESIGN_EXPIRY", time.Hour),
	}

	switch cfg.LLMProvider {
	case "none", "openai", "gemini":
	default:
		p.fail("LLM_PROVIDER", cfg.LLMProvider, "must be openai, gemini or none")
	}
	if cfg.HistoryLimit < 0 {
		p.fail("HISTORY_LIMIT", strconv.Itoa(cfg.HistoryLimit), "must not be negative")
	}
	if cfg.HistoryCacheSize <= 0 {
		p.fail("HISTORY_CACHE_SIZE", strconv.Itoa(cfg.HistoryCacheSize), "must be positive")
	}
	if cfg.ChatRateLimit <= 0 {
		p.fail("CHAT_RATE_LIMIT", strconv.Itoa(cfg.ChatRateLimit), "must be positive")
	}

	if cfg.IsProduction() && cfg.LLMProvider != "none" && cfg.LLMAPIKey() == "" {
		p.fail("LLM_PROVIDER", cfg.LLMProvider, "production requires the provider's API key")
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return cfg, nil
}

// parser collects every problem instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value, reason string) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %s", key, value, reason))
}

func (p *parser) string(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func (p *parser) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		p.errs = append(p.errs, fmt.Errorf("%s is required", key))
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func (p *parser) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, "must be an integer")
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LLMAPIKey is the key of the selected provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return ""
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy holding only fields that are safe to expose to
// templates and logs.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:          c.AppName,
		AppEnv:           c.AppEnv,
		AppURL:           c.AppURL,
		Port:             c.Port,
		DBDriver:         c.DBDriver,
		LLMProvider:      c.LLMProvider,
		LLMModel:         c.LLMModel,
		ExportFormat:     c.ExportFormat,
		AutoExport:       c.AutoExport,
		IncludeTemplates: c.IncludeTemplates,
		S3Endpoint:       c.S3Endpoint,
	}
}

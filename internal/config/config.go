// Package config reads the bridge settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port        string
	DatabaseURL string
	Env         string
	LogLevel    string

	WhatsApp WhatsAppConfig
	OpenAI   OpenAIConfig
	Session  SessionConfig
	Debounce DebounceConfig
	Survey   SurveyConfig

	PartnersFile string
	AdminPhone   string
	AdminToken   string
}

type WhatsAppConfig struct {
	VerifyToken   string
	AppSecret     string
	Token         string
	PhoneNumberID string
	GraphURL      string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SessionConfig selects where survey sessions live. TTL bounds how long an
// untouched session survives in redis and in the sweeper-backed stores.
type SessionConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	TTL           time.Duration
	SweepInterval time.Duration
}

type DebounceConfig struct {
	Window          time.Duration
	FinancialWindow time.Duration
}

type SurveyConfig struct {
	MaxStrikes  int
	Timeout     time.Duration
	MinimumWage int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Env:         getEnv("APP_ENV", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		WhatsApp: WhatsAppConfig{
			VerifyToken:   getEnv("WEBHOOK_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			Token:         getEnv("WHATSAPP_TOKEN", ""),
			PhoneNumberID: getEnv("PHONE_NUMBER_ID", ""),
			GraphURL:      getEnv("GRAPH_API_URL", "https://graph.facebook.com/v18.0"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			SQLitePath:    getEnv("SQLITE_PATH", "./data/sessions.db"),
			TTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Debounce: DebounceConfig{
			Window:          getEnvDuration("DEBOUNCE_WINDOW", 4*time.Second),
			FinancialWindow: getEnvDuration("FINANCIAL_DEBOUNCE_WINDOW", time.Second),
		},
		Survey: SurveyConfig{
			MaxStrikes:  getEnvInt("SURVEY_MAX_STRIKES", 2),
			Timeout:     getEnvDuration("SURVEY_TIMEOUT", 30*time.Minute),
			MinimumWage: int64(getEnvInt("SMLV", 1423500)),
		},
		PartnersFile: getEnv("PARTNERS_FILE", ""),
		AdminPhone:   getEnv("ADMIN_WHATSAPP", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.WhatsApp.Token == "" || c.WhatsApp.PhoneNumberID == "" {
		return fmt.Errorf("WHATSAPP_TOKEN and PHONE_NUMBER_ID are required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	switch c.Session.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty with redis sessions")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.Backend == BackendSQLite && c.Session.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH cannot be empty with sqlite sessions")
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.Debounce.Window <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be > 0")
	}
	if c.Survey.MaxStrikes <= 0 {
		return fmt.Errorf("SURVEY_MAX_STRIKES must be > 0")
	}
	if c.Survey.MinimumWage <= 0 {
		return fmt.Errorf("SMLV must be > 0")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("4s") and bare milliseconds ("4000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

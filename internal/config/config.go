// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config holds all application configuration.
type Config struct {
	Port               string
	DBPath             string
	AppEnv             string
	AllowedOrigins     []string
	MaxRequestBodySize int64
	SessionTTL         time.Duration
	SessionSweep       time.Duration
	SchemaCacheTTL     time.Duration
	QueryTimeout       time.Duration
	LLM                LLMConfig
	RateLimit          RateLimitConfig
	ConversationLog    ConversationLogConfig
}

// LLMConfig selects and parameterises the completion provider.
type LLMConfig struct {
	Provider  string // "anthropic" or "openai"
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// RateLimitConfig bounds chat requests per session.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		DBPath:             getEnv("DB_PATH", "./data/hrdesk.db"),
		AppEnv:             getEnv("APP_ENV", ""),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionSweep:       getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		SchemaCacheTTL:     getEnvDuration("SCHEMA_CACHE_TTL", 5*time.Minute),
		QueryTimeout:       getEnvDuration("QUERY_TIMEOUT", 10*time.Second),
		LLM:                loadLLM(),
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadLLM() LLMConfig {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", "anthropic"))
	llm := LLMConfig{
		Provider:  provider,
		BaseURL:   getEnv("LLM_BASE_URL", ""),
		MaxTokens: getEnvInt("CLAUDE_MAX_TOKENS", 2048),
		Timeout:   getEnvDuration("LLM_TIMEOUT", 30*time.Second),
	}
	switch provider {
	case "openai":
		llm.APIKey = getEnv("OPENAI_API_KEY", "")
		llm.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	default:
		llm.APIKey = getEnv("CLAUDE_API_KEY", getEnv("ANTHROPIC_API_KEY", ""))
		llm.Model = getEnv("CLAUDE_MODEL", "claude-3-5-haiku-20241022")
	}
	return llm
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.LLM.Provider != "anthropic" && c.LLM.Provider != "openai" {
		return fmt.Errorf("LLM_PROVIDER must be anthropic or openai, got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("CLAUDE_MAX_TOKENS must be > 0")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SessionSweep <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	if c.SchemaCacheTTL <= 0 {
		return fmt.Errorf("SCHEMA_CACHE_TTL must be > 0")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be > 0")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	return nil
}

// IsDevelopment returns true only when APP_ENV is explicitly "development".
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsEmptyProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CLAUDE_MODEL", "claude-test")

	cfg, err := Load()
	require.Error(t, err, "empty provider must be rejected")
	assert.Nil(t, cfg)
}

func TestLoadAnthropic(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("CLAUDE_API_KEY", "sk-test")
	t.Setenv("CLAUDE_MAX_TOKENS", "512")
	t.Setenv("LLM_TIMEOUT", "10s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoadOpenAIUsesOpenAIKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("OPENAI_MODEL", "gpt-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("SESSION_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestValidateRejectsZeroRateLimit(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_REQUESTS")
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	for _, key := range []string{"SESSION_TTL", "SESSION_SWEEP_INTERVAL", "SCHEMA_CACHE_TTL", "QUERY_TIMEOUT"} {
		for _, value := range []string{"0s", "-1m"} {
			t.Run(key+"="+value, func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "anthropic")
				t.Setenv(key, value)

				cfg, err := Load()
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), key)
			})
		}
	}
}

func TestAppEnvDefaultsToSecureCookies(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("APP_ENV", "")
	require.NoError(t, os.Unsetenv("APP_ENV"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AppEnv)
	assert.False(t, cfg.IsDevelopment())

	t.Setenv("APP_ENV", "development")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "https://api.example.com/api/")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.example.com/api", cfg.BackendURL)
	assert.Equal(t, "memory", cfg.TokenStore)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 2*time.Second, cfg.SessionInitWait)
	assert.Equal(t, "dev-session-secret", cfg.SessionSecret)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "https://api.example.com")
	t.Setenv("TELEGRAM_DEV_MODE", "true")
	t.Setenv("TELEGRAM_DEV_USER_ID", "42")
	t.Setenv("TOKEN_STORE", "Redis")
	t.Setenv("PURCHASE_REDIRECT_DELAY", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	assert.True(t, cfg.TelegramDevMode)
	assert.Equal(t, int64(42), cfg.DevTelegramID)
	assert.Equal(t, "redis", cfg.TokenStore)
	assert.Equal(t, 3*time.Second, cfg.PurchaseRedirectDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("TOKEN_STORE", "etcd")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_API_URL")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "etcd")
}

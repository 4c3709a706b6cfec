package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test-token", cfg.Telegram.BotToken)
	assert.Equal(t, 60*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Watch.WalletDelay)
	assert.Equal(t, 300*time.Second, cfg.Watch.ArbResetWindow)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaURL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("DB_PORT", "5433")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Watch.PollInterval)
	assert.Equal(t, 5433, cfg.Database.Port)
}

func TestLoadConfig_RequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

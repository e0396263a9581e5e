package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IntraDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.intra.42.fr", cfg.Intra.BaseURL)
	assert.Equal(t, "https://api.intra.42.fr/oauth/token", cfg.Intra.TokenURL)
	assert.Equal(t, 100, cfg.Intra.PageSize)
	assert.Equal(t, 1200*time.Millisecond, cfg.Intra.PacingInterval)
	assert.Equal(t, 10, cfg.Intra.MaxAttempts)
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore.Backend)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("INTRA_CLIENT_ID", "uid")
	t.Setenv("INTRA_CLIENT_SECRET", "secret")
	t.Setenv("INTRA_PACING_INTERVAL", "2s")
	t.Setenv("INTRA_MAX_ATTEMPTS", "3")
	t.Setenv("TOKEN_STORE_BACKEND", "sqlite")

	cfg, err := NewConfigFromEnv(WithPort(9000))
	require.NoError(t, err)

	assert.Equal(t, "uid", cfg.Intra.ClientID)
	assert.Equal(t, "secret", cfg.Intra.ClientSecret)
	assert.Equal(t, 2*time.Second, cfg.Intra.PacingInterval)
	assert.Equal(t, 3, cfg.Intra.MaxAttempts)
	assert.Equal(t, TokenStoreSQLite, cfg.TokenStore.Backend)
	assert.Equal(t, 9000, cfg.Port)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromEnv_JoinsErrors(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("SKIP_AUTH", "maybe")

	_, err := NewConfigFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "eighty")
	assert.Contains(t, err.Error(), "maybe")
}

func TestValidate(t *testing.T) {
	cfg := NewConfig(WithTokenStoreBackend("floppy"), WithIntraPageSize(0))

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTRA_CLIENT_ID")
	assert.Contains(t, err.Error(), "INTRA_PAGE_SIZE")
	assert.Contains(t, err.Error(), "floppy")
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformEnvKey(t *testing.T) {
	t.Run("Should map prefixed env names to dotted keys", func(t *testing.T) {
		assert.Equal(t, "server.port", transformEnvKey("SIM_SERVER_PORT"))
		assert.Equal(t, "execution.default_timeout", transformEnvKey("SIM_EXECUTION_DEFAULT_TIMEOUT"))
		assert.Equal(t, "delegate.prefer_delegate", transformEnvKey("SIM_DELEGATE_PREFER_DELEGATE"))
		assert.Equal(t, "log.level", transformEnvKey("SIM_LOG_LEVEL"))
	})
}

func TestLoad(t *testing.T) {
	t.Run("Should return defaults with no environment set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Execution.DefaultTimeout)
		assert.Equal(t, 5*time.Minute, cfg.Execution.MaxTimeout)
		assert.Empty(t, cfg.Delegate.URL)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("Should override defaults from the environment", func(t *testing.T) {
		t.Setenv("SIM_SERVER_PORT", "9999")
		t.Setenv("SIM_EXECUTION_DEFAULT_TIMEOUT", "10s")
		t.Setenv("SIM_DELEGATE_URL", "http://sandbox.internal:8200")
		t.Setenv("SIM_LOG_LEVEL", "debug")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.Execution.DefaultTimeout)
		assert.Equal(t, "http://sandbox.internal:8200", cfg.Delegate.URL)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

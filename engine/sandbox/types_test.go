package sandbox_test

import (
	"testing"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/stretchr/testify/assert"
)

func TestExecutionRequest_Normalize(t *testing.T) {
	t.Run("Should default the language to javascript", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "return 1;"}
		req.Normalize()
		assert.Equal(t, sandbox.LanguageJavaScript, req.Language)
	})

	t.Run("Should keep an explicit language", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "x", Language: sandbox.LanguagePython}
		req.Normalize()
		assert.Equal(t, sandbox.LanguagePython, req.Language)
	})
}

func TestExecutionRequest_EffectiveTimeout(t *testing.T) {
	cfg := sandbox.DefaultConfig()

	t.Run("Should use the configured default when unset", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "x"}
		assert.Equal(t, cfg.DefaultTimeout, req.EffectiveTimeout(cfg))
	})

	t.Run("Should honor an explicit timeout", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "x", TimeoutMs: 1500}
		assert.Equal(t, 1500*time.Millisecond, req.EffectiveTimeout(cfg))
	})

	t.Run("Should cap at the configured maximum", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "x", TimeoutMs: int((10 * time.Minute).Milliseconds())}
		assert.Equal(t, cfg.MaxTimeout, req.EffectiveTimeout(cfg))
	})
}

func TestExecutionRequest_Validate(t *testing.T) {
	t.Run("Should require code", func(t *testing.T) {
		err := (&sandbox.ExecutionRequest{}).Validate()
		assert.Error(t, err)
	})

	t.Run("Should reject a negative timeout", func(t *testing.T) {
		err := (&sandbox.ExecutionRequest{Code: "x", TimeoutMs: -1}).Validate()
		assert.Error(t, err)
	})

	t.Run("Should accept a minimal request", func(t *testing.T) {
		err := (&sandbox.ExecutionRequest{Code: "return 1;"}).Validate()
		assert.NoError(t, err)
	})
}

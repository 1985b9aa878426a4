package sandbox

import (
	"fmt"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/core"
	"github.com/go-playground/validator/v10"
)

// Language identifies the declared language of a code block.
type Language string

const (
	// LanguageJavaScript runs in-process on the embedded VM.
	LanguageJavaScript Language = "javascript"
	// LanguagePython always delegates to the external sandbox service.
	LanguagePython Language = "python"
)

func (l Language) String() string {
	return string(l)
}

// ExecutionRequest is the inbound contract from the workflow orchestrator.
// It is owned exclusively by one invocation and never shared.
type ExecutionRequest struct {
	Code              string                 `json:"code"                        validate:"required"`
	Params            core.Params            `json:"params,omitempty"`
	Language          Language               `json:"language,omitempty"`
	TimeoutMs         int                    `json:"timeout,omitempty"           validate:"gte=0"`
	EnvVars           core.EnvMap            `json:"envVars,omitempty"`
	BlockData         core.BlockData         `json:"blockData,omitempty"`
	BlockNameMapping  core.BlockNameMapping  `json:"blockNameMapping,omitempty"`
	WorkflowVariables core.WorkflowVariables `json:"workflowVariables,omitempty"`
	WorkflowID        string                 `json:"workflowId,omitempty"`
	IsCustomTool      bool                   `json:"isCustomTool,omitempty"`
}

var validate = validator.New()

// Validate checks the request against its declared constraints.
func (r *ExecutionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid execution request: %w", err)
	}
	return nil
}

// Normalize fills optional fields with their documented defaults. Mappings are
// left nil-safe rather than allocated; all consumers treat nil as empty.
func (r *ExecutionRequest) Normalize() {
	if r.Language == "" {
		r.Language = LanguageJavaScript
	}
}

// EffectiveTimeout returns the wall-clock budget for this request, applying
// the configured default and cap.
func (r *ExecutionRequest) EffectiveTimeout(cfg *Config) time.Duration {
	timeout := time.Duration(r.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = cfg.DefaultTimeout
	}
	if cfg.MaxTimeout > 0 && timeout > cfg.MaxTimeout {
		timeout = cfg.MaxTimeout
	}
	return timeout
}

// ExecutionResult is the single output envelope for all local execution paths.
// Delegation never produces this envelope; it propagates as *DelegationError.
type ExecutionResult struct {
	Success         bool   `json:"success"`
	Result          any    `json:"result"`
	Stdout          string `json:"stdout"`
	ExecutionTimeMs int64  `json:"executionTime"`
	Error           string `json:"error,omitempty"`
}

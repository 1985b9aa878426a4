package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/core"
	"github.com/ThomasVuNguyen/sim/pkg/logger"
)

// Service runs sandboxed code executions. It holds configuration only; every
// invocation constructs and tears down its own context, so a single Service
// may serve many invocations concurrently.
type Service struct {
	cfg *Config
}

// NewService creates an execution service with the given options applied over
// the default configuration.
func NewService(opts ...Option) *Service {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{cfg: cfg}
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.cfg
}

// Execute runs one request to a single terminal outcome.
//
// The policy gate runs first on the raw text; if delegation is required, the
// pipeline short-circuits and the *DelegationError propagates as the error
// return before any context or compiled script exists. All script failures
// (compile, runtime, timeout) are folded into the returned envelope; only
// delegation signals and engine-internal faults surface as errors.
func (s *Service) Execute(ctx context.Context, req *ExecutionRequest) (*ExecutionResult, error) {
	if req == nil {
		return nil, errors.New("execution request must not be nil")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	execID, err := core.NewID()
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("exec_id", execID, "workflow_id", req.WorkflowID)
	start := time.Now()

	if err := CheckPolicy(req); err != nil {
		if dErr, ok := IsDelegation(err); ok {
			recordDelegation(ctx, dErr.Reason)
			log.Info("execution requires delegation", "reason", dErr.Reason, "language", req.Language)
		}
		return nil, err
	}

	log.Debug("execution state", "status", core.StatusResolving)
	resolution := Resolve(req)

	cc, err := newCapabilityContext(s.cfg, resolution.Bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to build capability context: %w", err)
	}
	log.Debug("execution state", "status", core.StatusContextBuilt, "bindings", len(resolution.Bindings))

	timeout := req.EffectiveTimeout(s.cfg)
	log.Debug("execution state", "status", core.StatusRunning, "timeout", timeout)
	value, runErr := runScript(ctx, cc, resolution.Code, timeout)

	elapsed := time.Since(start)
	stdout := cc.stdout.String()
	result := assembleResult(value, runErr, stdout, elapsed)

	status := terminalStatus(runErr)
	s.recordOutcome(ctx, status, runErr, elapsed, len(stdout))
	if runErr != nil {
		log.Warn("execution finished", "status", status, "error", result.Error, "duration", elapsed)
	} else {
		log.Debug("execution finished", "status", status, "duration", elapsed)
	}
	return result, nil
}

func (s *Service) recordOutcome(
	ctx context.Context,
	status core.StatusType,
	runErr error,
	elapsed time.Duration,
	stdoutBytes int,
) {
	recordStdoutSize(ctx, stdoutBytes)
	switch status {
	case core.StatusTimedOut:
		recordTimeout(ctx)
		recordError(ctx, ErrorKindTimeout)
		recordExecution(ctx, elapsed, outcomeTimeout)
	case core.StatusFailed:
		recordError(ctx, kindOf(runErr))
		recordExecution(ctx, elapsed, outcomeError)
	default:
		recordExecution(ctx, elapsed, outcomeSuccess)
	}
}

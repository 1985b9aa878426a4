package sandbox

import (
	"errors"
	"strings"
	"time"

	"github.com/ThomasVuNguyen/sim/engine/core"
)

// assembleResult normalizes every local execution path into the single output
// envelope. Failures carry whatever stdout was captured before they happened.
func assembleResult(value any, err error, stdout string, elapsed time.Duration) *ExecutionResult {
	result := &ExecutionResult{
		Stdout:          trimStdout(stdout),
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
	if err != nil {
		result.Error = failureMessage(err)
		return result
	}
	result.Success = true
	result.Result = value
	return result
}

// trimStdout removes the single trailing newline the console shim appends to
// the last line. Other trailing whitespace belongs to the user's output and
// is kept.
func trimStdout(s string) string {
	return strings.TrimSuffix(s, "\n")
}

func failureMessage(err error) string {
	var se *ScriptError
	if errors.As(err, &se) {
		switch se.Kind {
		case ErrorKindTimeout:
			return "execution timed out: " + se.Err.Error()
		case ErrorKindCompile:
			return "syntax error: " + se.Err.Error()
		default:
			return se.Err.Error()
		}
	}
	return err.Error()
}

// terminalStatus maps an outcome onto the invocation state machine.
func terminalStatus(err error) core.StatusType {
	if err == nil {
		return core.StatusCompleted
	}
	if kindOf(err) == ErrorKindTimeout {
		return core.StatusTimedOut
	}
	return core.StatusFailed
}

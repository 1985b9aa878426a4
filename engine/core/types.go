package core

// -----------------------------------------------------------------------------
// Shared value types
// -----------------------------------------------------------------------------

// Params is an opaque key-value mapping supplied by the workflow layer.
type Params map[string]any

// EnvMap holds environment secrets exposed to template references.
type EnvMap map[string]string

// BlockData maps block IDs to the outputs those blocks produced earlier in the
// pipeline. Values are opaque to the engine and traversed only by dotted path.
type BlockData map[string]any

// BlockNameMapping maps lowercase block names to block IDs.
type BlockNameMapping map[string]string

// WorkflowVariable is a typed variable declared on the workflow.
type WorkflowVariable struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// WorkflowVariables maps variable IDs to their declarations.
type WorkflowVariables map[string]WorkflowVariable

// -----------------------------------------------------------------------------
// Execution Status
// -----------------------------------------------------------------------------

// StatusType tracks the lifecycle of a single invocation. No instance survives
// into a second invocation.
type StatusType string

const (
	StatusPending      StatusType = "PENDING"
	StatusResolving    StatusType = "RESOLVING"
	StatusContextBuilt StatusType = "CONTEXT_BUILT"
	StatusRunning      StatusType = "RUNNING"
	StatusCompleted    StatusType = "COMPLETED"
	StatusFailed       StatusType = "FAILED"
	StatusTimedOut     StatusType = "TIMED_OUT"
)

func (s StatusType) String() string {
	return string(s)
}

// Terminal reports whether the status is a terminal outcome.
func (s StatusType) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

package sandbox

import (
	"errors"
	"fmt"
)

// DelegationReason explains why a request must leave the process.
type DelegationReason string

const (
	// DelegationRequiresImport is raised when the source text needs package
	// imports that the in-process VM cannot resolve.
	DelegationRequiresImport DelegationReason = "requires-import"
	// DelegationNonDefaultLanguage is raised for any language without a local
	// interpreter.
	DelegationNonDefaultLanguage DelegationReason = "non-default-language"
)

// DelegationError is a control signal, not a failure: the caller must re-route
// the request to the external elevated sandbox service instead of surfacing an
// error to the end user. It is raised before any capability context or
// compiled script exists.
type DelegationError struct {
	Reason   DelegationReason
	Language Language
}

func (e *DelegationError) Error() string {
	return fmt.Sprintf("execution must be delegated (%s, language %s)", e.Reason, e.Language)
}

// IsDelegation reports whether err carries a delegation signal and returns it.
func IsDelegation(err error) (*DelegationError, bool) {
	var dErr *DelegationError
	if errors.As(err, &dErr) {
		return dErr, true
	}
	return nil, false
}

// ErrorKind classifies script failures at the runner boundary.
type ErrorKind string

const (
	ErrorKindCompile ErrorKind = "compile"
	ErrorKindRuntime ErrorKind = "runtime"
	ErrorKindTimeout ErrorKind = "timeout"
)

// ScriptError is a classified failure produced while compiling or running user
// code. All script errors are converted into the failure shape of
// ExecutionResult at the service boundary; none propagate to the caller.
type ScriptError struct {
	Kind ErrorKind
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s error: %v", e.Kind, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func newScriptError(kind ErrorKind, err error) *ScriptError {
	return &ScriptError{Kind: kind, Err: err}
}

// kindOf extracts the error kind, defaulting to runtime for unclassified
// failures.
func kindOf(err error) ErrorKind {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrorKindRuntime
}

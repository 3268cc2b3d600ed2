package core

import "fmt"

// BackendError wraps a failure of the model call itself. It is fatal:
// the run aborts and no partial turn events are merged for the failed
// turn.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("backend error: %v", e.Err) }

// Unwrap returns the underlying provider error.
func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError wraps err as a fatal backend failure.
func NewBackendError(err error) *BackendError { return &BackendError{Err: err} }

// ToolExecutionError reports a failed tool invocation. Recoverable
// errors (the default) are folded into conversation history as a
// tool-output item carrying the error text; non-recoverable errors
// abort the run.
type ToolExecutionError struct {
	Tool        string
	Err         error
	Recoverable bool
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying tool error.
func (e *ToolExecutionError) Unwrap() error { return e.Err }

// HandoffResolutionError reports a handoff call referencing a target the
// active agent never declared. Always fatal, never retried.
type HandoffResolutionError struct {
	Agent    string
	ToolName string
}

func (e *HandoffResolutionError) Error() string {
	return fmt.Sprintf("agent %q has no handoff matching tool %q", e.Agent, e.ToolName)
}

// MalformedOutputError reports a final turn output that does not satisfy
// the active agent's declared output contract. The raw output is kept
// for diagnosis.
type MalformedOutputError struct {
	Agent     string
	RawOutput string
	Reason    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("agent %q produced malformed output: %s", e.Agent, e.Reason)
}

// MaxTurnsExceededError reports that a run hit its turn budget without
// reaching a terminal state.
type MaxTurnsExceededError struct {
	MaxTurns int
}

func (e *MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("max turns %d exceeded", e.MaxTurns)
}

// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side-effects)
// with schema validated arguments and consistent error handling.
package tool

import (
	"fmt"
)

// Tool defines the interface for extending agent capabilities with
// external functions.
//
// Tools are registered on agents to enable function calling. Execution
// happens outside the run loop's event ordering: the loop requests a
// call, the tool runs (possibly concurrently with other tools of the
// same turn) and the serialized result is folded back into conversation
// history as a tool-output item.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended)
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the
	// model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input
	// format, used for validation and function-calling declarations.
	Parameters() map[string]any

	// Call executes the tool with already-parsed arguments. A returned
	// *Error controls recoverability; any other error is treated as
	// recoverable.
	Call(toolCtx *Context, args map[string]any) (any, error)
}

// Error represents errors that occur during tool execution. Recoverable
// errors (the default) are folded into conversation history; setting
// Fatal marks the failure as non-recoverable, aborting the run.
type Error struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Fatal   bool   `json:"fatal,omitempty"`   // Non-recoverable when true
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates a recoverable Error with the specified details.
func NewError(tool, message, code string) *Error {
	return &Error{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// NewFatalError creates a non-recoverable Error that aborts the run
// when returned from a tool.
func NewFatalError(tool, message, code string) *Error {
	return &Error{
		Tool:    tool,
		Message: message,
		Code:    code,
		Fatal:   true,
	}
}

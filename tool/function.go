package tool

import (
	"fmt"
	"time"

	"github.com/loopkit/loopkit/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as
// a loopkit tool.
//
// Responsibilities:
//   - Holds a JSON-Schema-like parameter specification
//   - Validates model supplied arguments against that schema before
//     execution
//   - Invokes the wrapped function with a *Context giving access to the
//     call identifier, requesting agent and logger
//   - Normalizes error handling so callers receive *Error with
//     consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error
//     (custom codes preserved if the function returns *Error directly)
//
// A FunctionTool has no internal mutable state after construction and is
// safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	// Tool identifier (snake_case recommended)
	name string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted arguments
	parameters map[string]any
	// Failures abort the run instead of being folded into history
	fatalOnError bool
	// User supplied implementation
	fn func(toolCtx *Context, args map[string]any) (any, error)
}

// FunctionOptions configure optional FunctionTool behavior.
type FunctionOptions struct {
	// FatalOnError marks every failure of this tool non-recoverable:
	// the run aborts instead of feeding the error back to the model.
	FatalOnError bool
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	sumTool := NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(tc *Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(toolCtx *Context, args map[string]any) (any, error),
	optFns ...func(o *FunctionOptions),
) *FunctionTool {
	opts := FunctionOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	return &FunctionTool{
		name:         name,
		description:  description,
		parameters:   parameters,
		fatalOnError: opts.FatalOnError,
		fn:           fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct
// via JSON schema reflection. It is a convenience for simple argument
// containers.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" jsonschema_description:"First addend"`
//	  B float64 `json:"b" jsonschema_description:"Second addend"`
//	}
//
//	sumTool, err := NewFunctionToolFromStruct(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  SumArgs{},
//	  func(tc *Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(toolCtx *Context, args map[string]any) (any, error),
	optFns ...func(o *FunctionOptions),
) (*FunctionTool, error) {
	schema, err := util.StructSchema(structType)
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema for tool %q: %w", name, err)
	}
	return NewFunctionTool(name, description, schema, fn, optFns...), nil
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then
// invokes the underlying function. Validation or execution failures are
// wrapped (or passed through) as *Error for uniform downstream handling.
func (t *FunctionTool) Call(toolCtx *Context, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "fc_id", toolCtx.CallID())

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &Error{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Fatal:   t.fatalOnError,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*Error); ok { // Already an Error -> just log and forward
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &Error{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
			Fatal:   t.fatalOnError,
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

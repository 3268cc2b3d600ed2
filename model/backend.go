package model

import (
	"context"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/usage"
)

// Settings carries model invocation parameters shared across dialects.
// Zero values mean "provider default".
type Settings struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// HandoffDefinition exposes a declared handoff target as a callable
// tool. Backends advertise it exactly like a function tool; the flow
// layer reclassifies calls to it as handoff requests.
type HandoffDefinition struct {
	ToolName    string         `json:"tool_name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized backend input produced by the runner
// for one turn.
type Request struct {
	Instructions string              `json:"instructions"`
	Input        []core.Item         `json:"input"`
	Tools        []ToolDefinition    `json:"tools,omitempty"`
	Handoffs     []HandoffDefinition `json:"handoffs,omitempty"`
	OutputSchema map[string]any      `json:"output_schema,omitempty"`
	Settings     Settings            `json:"settings"`
}

// Response is a complete (batch) backend result for one turn.
type Response struct {
	ID     string      `json:"id"`
	Output []core.Item `json:"output"`
	Usage  usage.Usage `json:"usage"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "fake", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Backend is the minimal interface the run loop needs to drive
// generation. Both methods are opaque producers: GetResponse returns an
// already-complete turn, StreamResponse yields the turn as a sequence of
// canonical provider events terminated by ResponseCompletedEvent (or an
// error on the error channel).
//
// Implementations must close both channels when the stream ends and
// respect context cancellation.
type Backend interface {
	GetResponse(ctx context.Context, req Request) (*Response, error)

	StreamResponse(ctx context.Context, req Request) (<-chan ProviderEvent, <-chan error)

	// Info returns information about the backend implementation.
	Info() Info
}

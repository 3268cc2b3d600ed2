package agent

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/tool"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Instructions is the system prompt material sent on every turn.
	Instructions string
	// Description is a short summary used when this agent is the target
	// of a handoff.
	Description string
	// Tools the agent may call, keyed by unique name.
	Tools []tool.Tool
	// Handoffs the agent may delegate to.
	Handoffs []Handoff
	// OutputSchema, when set, is a JSON Schema the agent's final text
	// output must satisfy.
	OutputSchema map[string]any
	// Settings override the runner's default model invocation parameters
	// for this agent.
	Settings model.Settings
}

// Agent bundles everything the run loop needs to drive one participant:
// identity, instructions, the backend that generates its turns, callable
// tools, declared handoff targets and an optional structured output
// contract.
//
// An Agent is immutable after construction and safe for concurrent use.
type Agent struct {
	name         string
	instructions string
	description  string
	backend      model.Backend
	tools        []tool.Tool
	handoffs     []Handoff
	outputSchema map[string]any
	settings     model.Settings
}

// New constructs an Agent bound to the given backend.
//
// Example:
//
//	triage := agent.New("Triage Agent", backend, func(o *agent.Options) {
//	  o.Instructions = "Route the customer to the right specialist."
//	  o.Handoffs = []agent.Handoff{agent.NewHandoff(billing)}
//	})
func New(name string, backend model.Backend, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	return &Agent{
		name:         name,
		instructions: opts.Instructions,
		description:  opts.Description,
		backend:      backend,
		tools:        opts.Tools,
		handoffs:     opts.Handoffs,
		outputSchema: opts.OutputSchema,
		settings:     opts.Settings,
	}
}

// Name returns the unique agent name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the system prompt material for this agent.
func (a *Agent) Instructions() string { return a.instructions }

// Description returns the handoff-facing summary of this agent.
func (a *Agent) Description() string { return a.description }

// Backend returns the model backend that generates this agent's turns.
func (a *Agent) Backend() model.Backend { return a.backend }

// Tools returns the agent's registered tools.
func (a *Agent) Tools() []tool.Tool { return a.tools }

// Handoffs returns the agent's declared handoff targets.
func (a *Agent) Handoffs() []Handoff { return a.handoffs }

// OutputSchema returns the agent's output contract, or nil.
func (a *Agent) OutputSchema() map[string]any { return a.outputSchema }

// Settings returns the per-agent model settings overrides.
func (a *Agent) Settings() model.Settings { return a.settings }

// ToolByName looks up a registered tool by name.
func (a *Agent) ToolByName(name string) (tool.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// HandoffByToolName looks up a declared handoff by its advertised tool
// name.
func (a *Agent) HandoffByToolName(toolName string) (Handoff, bool) {
	for _, h := range a.handoffs {
		if h.ToolName == toolName {
			return h, true
		}
	}
	return Handoff{}, false
}

// HandoffToolNames returns the set of tool names that classify as
// handoff requests for this agent.
func (a *Agent) HandoffToolNames() map[string]struct{} {
	names := make(map[string]struct{}, len(a.handoffs))
	for _, h := range a.handoffs {
		names[h.ToolName] = struct{}{}
	}
	return names
}

// ToolDefinitions builds the function declarations advertised to the
// backend for this agent's tools.
func (a *Agent) ToolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// HandoffDefinitions builds the tool-shaped declarations advertised to
// the backend for this agent's handoffs.
func (a *Agent) HandoffDefinitions() []model.HandoffDefinition {
	if len(a.handoffs) == 0 {
		return nil
	}
	defs := make([]model.HandoffDefinition, 0, len(a.handoffs))
	for _, h := range a.handoffs {
		defs = append(defs, model.HandoffDefinition{
			ToolName:    h.ToolName,
			Description: h.ToolDescription,
			Parameters:  h.Parameters,
		})
	}
	return defs
}

// ValidateOutput checks raw against the agent's output contract. With no
// contract declared it always succeeds. A violation is returned as
// *core.MalformedOutputError carrying the raw output for diagnosis.
func (a *Agent) ValidateOutput(raw string) error {
	if a.outputSchema == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(a.outputSchema)
	if err != nil {
		return &core.MalformedOutputError{
			Agent:     a.name,
			RawOutput: raw,
			Reason:    fmt.Sprintf("invalid output schema: %v", err),
		}
	}
	if !json.Valid([]byte(raw)) {
		return &core.MalformedOutputError{
			Agent:     a.name,
			RawOutput: raw,
			Reason:    "output is not valid JSON",
		}
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return &core.MalformedOutputError{
			Agent:     a.name,
			RawOutput: raw,
			Reason:    fmt.Sprintf("schema validation failed: %v", err),
		}
	}
	if !result.Valid() {
		reason := "output does not match schema"
		if errs := result.Errors(); len(errs) > 0 {
			reason = errs[0].String()
		}
		return &core.MalformedOutputError{
			Agent:     a.name,
			RawOutput: raw,
			Reason:    reason,
		}
	}
	return nil
}

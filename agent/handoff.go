package agent

import (
	"fmt"

	"github.com/loopkit/loopkit/core"
)

// InputFilter transforms the conversation history handed to a handoff
// target. It receives the full history (original input plus every item
// generated so far) and returns the replacement history the target
// starts from.
type InputFilter func(items []core.Item) []core.Item

// Handoff declares that an agent may delegate the remainder of a run to
// Target. It is advertised to the model as a callable tool; when the
// model calls it, the runner switches the active agent instead of
// executing a function.
type Handoff struct {
	// Target is the agent control transfers to.
	Target *Agent
	// ToolName is the advertised tool name, defaulting to
	// "transfer_to_<snake_case_target_name>".
	ToolName string
	// ToolDescription is shown to the model to guide delegation.
	ToolDescription string
	// Parameters is the JSON schema of the handoff call arguments.
	// Defaults to an empty object schema.
	Parameters map[string]any
	// InputFilter, when set, rewrites the conversation history before
	// the target agent sees it.
	InputFilter InputFilter
}

// HandoffOptions configures a Handoff declaration.
type HandoffOptions struct {
	ToolName        string
	ToolDescription string
	Parameters      map[string]any
	InputFilter     InputFilter
}

// NewHandoff declares a handoff to target with derived defaults for the
// tool name and description.
func NewHandoff(target *Agent, optFns ...func(o *HandoffOptions)) Handoff {
	opts := HandoffOptions{}
	for _, optFn := range optFns {
		optFn(&opts)
	}
	if opts.ToolName == "" {
		opts.ToolName = core.HandoffToolName(target.Name())
	}
	if opts.ToolDescription == "" {
		if target.Description() != "" {
			opts.ToolDescription = fmt.Sprintf("Handoff to the %s agent to handle the request. %s", target.Name(), target.Description())
		} else {
			opts.ToolDescription = fmt.Sprintf("Handoff to the %s agent to handle the request.", target.Name())
		}
	}
	if opts.Parameters == nil {
		opts.Parameters = map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		}
	}
	return Handoff{
		Target:          target,
		ToolName:        opts.ToolName,
		ToolDescription: opts.ToolDescription,
		Parameters:      opts.Parameters,
		InputFilter:     opts.InputFilter,
	}
}

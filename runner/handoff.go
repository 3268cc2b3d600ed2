package runner

import (
	"context"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/flow"
)

// applyHandoff resolves and applies the turn's handoff. When a turn
// carries several handoff calls the first one wins; the rest are
// answered with rejection outputs so the conversation stays consistent.
// Returns the new active agent and the items appended to history.
func (r *Runner) applyHandoff(
	ctx context.Context,
	current *agent.Agent,
	state *core.RunState,
	handoffs []core.HandoffCallItem,
	synth *flow.Synthesizer,
) (*agent.Agent, []core.Item, error) {
	first := handoffs[0]

	h, ok := current.HandoffByToolName(first.ToolName)
	if !ok || h.Target == nil {
		return nil, nil, &core.HandoffResolutionError{
			Agent:    current.Name(),
			ToolName: first.ToolName,
		}
	}
	target := h.Target

	_, span := r.tracer.Start(ctx, "handoff.apply", trace.WithAttributes(
		attribute.String("handoff.source", current.Name()),
		attribute.String("handoff.target", target.Name()),
	))
	defer span.End()

	var items []core.Item

	for _, rejected := range handoffs[1:] {
		out := core.ToolCallOutputItem{
			ID:      core.NewID(),
			CallID:  rejected.CallID,
			Name:    rejected.ToolName,
			Output:  "Multiple handoffs requested in one turn; this transfer was ignored.",
			IsError: true,
		}
		item, err := synth.ItemCompleted(out)
		if err != nil {
			return nil, nil, err
		}
		state.AppendItems(item)
		items = append(items, item)
	}

	record := core.HandoffOutputItem{
		ID:          core.NewID(),
		CallID:      first.CallID,
		SourceAgent: current.Name(),
		TargetAgent: target.Name(),
	}
	item, err := synth.ItemCompleted(record)
	if err != nil {
		return nil, nil, err
	}
	state.AppendItems(item)
	items = append(items, item)

	if h.InputFilter != nil {
		state.ReplaceInput(h.InputFilter(state.ConversationInput()))
	}

	// A handoff call may carry an "input" payload for the target agent.
	// It is appended after filtering so a filter cannot drop it.
	if payload := gjson.Get(first.Arguments, "input"); payload.Exists() && payload.String() != "" {
		msg := core.NewUserMessage(payload.String())
		state.AppendItems(msg)
		items = append(items, msg)
		r.logger.Debug("handoff.input", "source", current.Name(), "target", target.Name(), "input", payload.String())
	}

	state.SetAgentName(target.Name())
	if err := synth.AgentUpdated(target.Name()); err != nil {
		return nil, nil, err
	}

	r.logger.Info("handoff.applied", "source", current.Name(), "target", target.Name())

	return target, items, nil
}

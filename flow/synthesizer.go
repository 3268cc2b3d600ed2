package flow

import (
	"github.com/loopkit/loopkit/core"
)

// Emit is the sink semantic and raw events are delivered to, in order.
// A nil Emit discards events, which is how non-streamed runs reuse the
// same normalization path. A non-nil error aborts the turn.
type Emit func(event core.StreamEvent) error

// Synthesizer derives semantic run-item events from completed items.
// Each completed item yields exactly one RunItemEvent; tool calls whose
// target name matches a declared handoff are reclassified as handoff
// requests before emission.
type Synthesizer struct {
	turn             *core.TurnState
	handoffToolNames map[string]struct{}
	emit             Emit
}

// NewSynthesizer binds a synthesizer to the turn's shared sequence
// counter. handoffToolNames is the set of tool names the active agent
// declared as handoffs; calls to them classify as handoff requests.
func NewSynthesizer(turn *core.TurnState, handoffToolNames map[string]struct{}, emit Emit) *Synthesizer {
	return &Synthesizer{
		turn:             turn,
		handoffToolNames: handoffToolNames,
		emit:             emit,
	}
}

// Classify returns the item as the run loop should record it,
// reclassifying tool calls that address a declared handoff target.
func (s *Synthesizer) Classify(item core.Item) core.Item {
	call, ok := item.(core.ToolCallItem)
	if !ok {
		return item
	}
	if _, isHandoff := s.handoffToolNames[call.Name]; !isHandoff {
		return item
	}
	return core.HandoffCallItem{
		ID:        call.ID,
		CallID:    call.CallID,
		ToolName:  call.Name,
		Arguments: call.Arguments,
		Index:     call.Index,
		Raw:       call.Raw,
	}
}

// ItemCompleted records a completed item and emits its semantic event.
// The classified item is returned so callers fold the same value into
// conversation history that consumers saw on the stream.
func (s *Synthesizer) ItemCompleted(item core.Item) (core.Item, error) {
	classified := s.Classify(item)
	s.turn.AddItem(classified)

	event := core.RunItemEvent{
		Seq:  s.turn.NextSeq(),
		Name: eventNameFor(classified),
		Item: classified,
	}
	if s.emit == nil {
		return classified, nil
	}
	if err := s.emit(event); err != nil {
		return classified, err
	}
	return classified, nil
}

// AgentUpdated emits the agent-switch event that follows an applied
// handoff.
func (s *Synthesizer) AgentUpdated(agentName string) error {
	if s.emit == nil {
		return nil
	}
	return s.emit(core.AgentUpdatedEvent{
		Seq:       s.turn.NextSeq(),
		AgentName: agentName,
	})
}

// eventNameFor maps an item variant to its run-item event kind.
func eventNameFor(item core.Item) core.RunItemEventName {
	switch item.(type) {
	case core.ToolCallItem:
		return core.EventToolCalled
	case core.ToolCallOutputItem:
		return core.EventToolOutput
	case core.ReasoningItem:
		return core.EventReasoningItemCreated
	case core.HandoffCallItem:
		return core.EventHandoffRequested
	case core.HandoffOutputItem:
		return core.EventHandoffOccurred
	default:
		return core.EventMessageOutputCreated
	}
}

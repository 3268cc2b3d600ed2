package core

// StreamEvent is one entry in the ordered event stream exposed to
// external consumers of a run. The set of variants is closed:
// RawEvent (opaque provider passthrough), RunItemEvent (semantic event
// wrapping one completed item) and AgentUpdatedEvent (agent switch after
// a handoff).
type StreamEvent interface {
	isStreamEvent()

	// Sequence returns the monotonic sequence number assigned to this
	// event within its turn. Raw and synthesized events share a single
	// counter, so sequence numbers are strictly increasing across the
	// merged stream of one turn.
	Sequence() int64
}

// RawEvent is an opaque, provider-shaped event relayed unmodified for
// observability. The payload is the canonical provider event that
// produced it; consumers who care about its structure type-assert it.
type RawEvent struct {
	Seq     int64
	Payload any
}

func (RawEvent) isStreamEvent() {}

// Sequence returns the per-turn sequence number of this event.
func (e RawEvent) Sequence() int64 { return e.Seq }

// RunItemEventName tags the semantic kind of a RunItemEvent.
type RunItemEventName string

// Run-item event kinds, one per item variant reaching completion.
const (
	EventToolCalled           RunItemEventName = "tool_called"
	EventToolOutput           RunItemEventName = "tool_output"
	EventReasoningItemCreated RunItemEventName = "reasoning_item_created"
	EventMessageOutputCreated RunItemEventName = "message_output_created"
	EventHandoffRequested     RunItemEventName = "handoff_requested"
	EventHandoffOccurred      RunItemEventName = "handoff_occurred"
)

// RunItemEvent is a semantic event derived from exactly one completed
// Item. It is emitted once per item, strictly after the raw event that
// signalled the item's completion and strictly before the raw event
// closing the turn.
type RunItemEvent struct {
	Seq  int64
	Name RunItemEventName
	Item Item
}

func (RunItemEvent) isStreamEvent() {}

// Sequence returns the per-turn sequence number of this event.
func (e RunItemEvent) Sequence() int64 { return e.Seq }

// AgentUpdatedEvent announces that a handoff was applied and a new agent
// is active for all subsequent turns. Emitted exactly once per handoff.
type AgentUpdatedEvent struct {
	Seq       int64
	AgentName string
}

func (AgentUpdatedEvent) isStreamEvent() {}

// Sequence returns the per-turn sequence number of this event.
func (e AgentUpdatedEvent) Sequence() int64 { return e.Seq }

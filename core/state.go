package core

// TurnState accumulates the output of a single backend invocation: the
// ordered items materialized so far plus the monotonic sequence counter
// shared between raw and synthesized events. It is scoped to one turn
// and discarded once its items are merged into the RunState.
type TurnState struct {
	seq   int64
	items []Item
}

// NewTurnState returns an empty turn state with the sequence counter at
// zero.
func NewTurnState() *TurnState { return &TurnState{} }

// NextSeq returns the next sequence number, starting at 0.
func (t *TurnState) NextSeq() int64 {
	s := t.seq
	t.seq++
	return s
}

// AddItem appends a completed item, assigning its order key.
func (t *TurnState) AddItem(item Item) { t.items = append(t.items, item) }

// Items returns the ordered items completed so far.
func (t *TurnState) Items() []Item { return t.items }

// RunState is the cross-turn state of one run. It exclusively owns the
// accumulated conversation input and is never shared between runs.
type RunState struct {
	agentName string
	input     []Item
	generated []Item
	turn      int
	done      bool
	final     string
}

// NewRunState seeds a run with the starting agent name and the original
// input items.
func NewRunState(agentName string, input []Item) *RunState {
	return &RunState{agentName: agentName, input: append([]Item(nil), input...)}
}

// AgentName returns the name of the currently active agent.
func (s *RunState) AgentName() string { return s.agentName }

// SetAgentName records an agent switch applied by a handoff.
func (s *RunState) SetAgentName(name string) { s.agentName = name }

// ConversationInput returns the input for the next backend call: the
// (possibly handoff-filtered) original input followed by every item
// generated by prior turns.
func (s *RunState) ConversationInput() []Item {
	out := make([]Item, 0, len(s.input)+len(s.generated))
	out = append(out, s.input...)
	out = append(out, s.generated...)
	return out
}

// AppendItems merges items produced by a completed turn (or by tool
// executions) into the run's history.
func (s *RunState) AppendItems(items ...Item) {
	s.generated = append(s.generated, items...)
}

// NewItems returns the items generated since the run started (or since
// the last handoff filter replaced the history).
func (s *RunState) NewItems() []Item { return s.generated }

// ReplaceInput installs a handoff-filtered conversation history. The
// generated-item buffer is reset; prior items survive only if the filter
// kept them in the replacement input.
func (s *RunState) ReplaceInput(items []Item) {
	s.input = append([]Item(nil), items...)
	s.generated = nil
}

// BeginTurn increments and returns the 1-based turn counter.
func (s *RunState) BeginTurn() int {
	s.turn++
	return s.turn
}

// Turn returns the number of turns started so far.
func (s *RunState) Turn() int { return s.turn }

// Complete marks the run terminated with the given final output.
func (s *RunState) Complete(output string) {
	s.done = true
	s.final = output
}

// Done reports whether the run has reached a terminal state.
func (s *RunState) Done() bool { return s.done }

// FinalOutput returns the final output once Complete has been called.
func (s *RunState) FinalOutput() string { return s.final }

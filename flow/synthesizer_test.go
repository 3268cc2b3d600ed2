package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/core"
)

func TestSynthesizerSharedCounter(t *testing.T) {
	var got []core.StreamEvent
	turn := core.NewTurnState()
	synth := NewSynthesizer(turn, nil, collect(&got))

	// Simulate raw events claiming the first two sequence numbers.
	turn.NextSeq()
	turn.NextSeq()

	item, err := synth.ItemCompleted(core.NewAssistantMessage("done"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Sequence())
	assert.Equal(t, core.Item(item), got[0].(core.RunItemEvent).Item)

	require.NoError(t, synth.AgentUpdated("Billing Agent"))
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[1].Sequence())
	assert.Equal(t, "Billing Agent", got[1].(core.AgentUpdatedEvent).AgentName)
}

func TestSynthesizerClassify(t *testing.T) {
	synth := NewSynthesizer(core.NewTurnState(), map[string]struct{}{"transfer_to_billing_agent": {}}, nil)

	call := core.NewToolCall("c1", "transfer_to_billing_agent", `{"input":"refund"}`)
	classified := synth.Classify(call)
	handoff, ok := classified.(core.HandoffCallItem)
	require.True(t, ok)
	assert.Equal(t, call.CallID, handoff.CallID)
	assert.Equal(t, call.Arguments, handoff.Arguments)

	plain := core.NewToolCall("c2", "get_weather", "{}")
	assert.Equal(t, core.Item(plain), synth.Classify(plain))
}

func TestSynthesizerNilEmitRecordsItems(t *testing.T) {
	turn := core.NewTurnState()
	synth := NewSynthesizer(turn, nil, nil)

	_, err := synth.ItemCompleted(core.NewAssistantMessage("quiet"))
	require.NoError(t, err)
	assert.Len(t, turn.Items(), 1)
}

func TestEventNameFor(t *testing.T) {
	assert.Equal(t, core.EventToolCalled, eventNameFor(core.ToolCallItem{}))
	assert.Equal(t, core.EventToolOutput, eventNameFor(core.ToolCallOutputItem{}))
	assert.Equal(t, core.EventReasoningItemCreated, eventNameFor(core.ReasoningItem{}))
	assert.Equal(t, core.EventMessageOutputCreated, eventNameFor(core.MessageItem{}))
	assert.Equal(t, core.EventHandoffRequested, eventNameFor(core.HandoffCallItem{}))
	assert.Equal(t, core.EventHandoffOccurred, eventNameFor(core.HandoffOutputItem{}))
}

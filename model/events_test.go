package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/usage"
)

func TestSynthesizeEventsGrammar(t *testing.T) {
	resp := &Response{
		ID: "resp-1",
		Output: []core.Item{
			core.MessageItem{ID: "m1", Role: core.RoleAssistant, Text: "hello", Index: 0},
			core.ToolCallItem{ID: "t1", CallID: "c1", Name: "lookup", Arguments: "{}", Index: 1},
		},
		Usage: usage.Usage{Requests: 1, TotalTokens: 7},
	}

	events := SynthesizeEvents(resp)
	require.Len(t, events, 7)

	assert.Equal(t, ResponseCreatedEvent{ResponseID: "resp-1"}, events[0])
	assert.Equal(t, ResponseInProgressEvent{ResponseID: "resp-1"}, events[1])
	assert.Equal(t, OutputItemAddedEvent{Index: 0, Item: resp.Output[0]}, events[2])
	assert.Equal(t, OutputItemDoneEvent{Index: 0, Item: resp.Output[0]}, events[3])
	assert.Equal(t, OutputItemAddedEvent{Index: 1, Item: resp.Output[1]}, events[4])
	assert.Equal(t, OutputItemDoneEvent{Index: 1, Item: resp.Output[1]}, events[5])

	completed, ok := events[6].(ResponseCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "resp-1", completed.ResponseID)
	assert.Equal(t, resp.Usage, completed.Usage)
}

func TestSynthesizeEventsReasoningSegments(t *testing.T) {
	reasoning := core.ReasoningItem{ID: "r1", Summary: []string{"part one", "part two"}, Index: 0}
	resp := &Response{ID: "resp-2", Output: []core.Item{reasoning}}

	events := SynthesizeEvents(resp)
	// created, in_progress, added, 2 segments x 4 sub-events, done, completed
	require.Len(t, events, 13)

	assert.Equal(t, ReasoningSummaryPartAddedEvent{Index: 0, SummaryIndex: 0, ItemID: "r1"}, events[3])
	assert.Equal(t, ReasoningSummaryTextDeltaEvent{Index: 0, SummaryIndex: 0, ItemID: "r1", Delta: "part one"}, events[4])
	assert.Equal(t, ReasoningSummaryTextDoneEvent{Index: 0, SummaryIndex: 0, ItemID: "r1", Text: "part one"}, events[5])
	assert.Equal(t, ReasoningSummaryPartDoneEvent{Index: 0, SummaryIndex: 0, ItemID: "r1", Text: "part one"}, events[6])
	assert.Equal(t, ReasoningSummaryPartAddedEvent{Index: 0, SummaryIndex: 1, ItemID: "r1"}, events[7])
	assert.Equal(t, OutputItemDoneEvent{Index: 0, Item: core.Item(reasoning)}, events[11])
}

func TestSynthesizeEventsDeterministic(t *testing.T) {
	resp := &Response{
		ID: "resp-3",
		Output: []core.Item{
			core.MessageItem{ID: "m1", Role: core.RoleAssistant, Text: "x"},
		},
	}

	assert.Equal(t, SynthesizeEvents(resp), SynthesizeEvents(resp))
}

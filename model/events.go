package model

import (
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/usage"
)

// ProviderEvent is one canonical provider-shaped event. Every backend
// dialect, streamed or batch, is expressed as a sequence of these:
//
//	ResponseCreatedEvent
//	ResponseInProgressEvent
//	for each output item, in order:
//	    OutputItemAddedEvent
//	    (OutputTextDeltaEvent | reasoning summary sub-events)*
//	    OutputItemDoneEvent
//	ResponseCompletedEvent
//
// Reasoning summary sub-events appear strictly between their item's
// added and done events, one added/delta/done/part-done group per
// summary segment. The set of variants is closed.
type ProviderEvent interface {
	isProviderEvent()
}

// ResponseCreatedEvent opens a turn.
type ResponseCreatedEvent struct {
	ResponseID string
}

func (ResponseCreatedEvent) isProviderEvent() {}

// ResponseInProgressEvent marks the turn as generating.
type ResponseInProgressEvent struct {
	ResponseID string
}

func (ResponseInProgressEvent) isProviderEvent() {}

// OutputItemAddedEvent announces a new output item. The carried item may
// still be partial; its final content arrives with OutputItemDoneEvent.
type OutputItemAddedEvent struct {
	Index int
	Item  core.Item
}

func (OutputItemAddedEvent) isProviderEvent() {}

// OutputTextDeltaEvent streams a text fragment of a message item.
type OutputTextDeltaEvent struct {
	Index  int
	ItemID string
	Delta  string
}

func (OutputTextDeltaEvent) isProviderEvent() {}

// ReasoningSummaryPartAddedEvent opens one summary segment of a
// reasoning item.
type ReasoningSummaryPartAddedEvent struct {
	Index        int
	SummaryIndex int
	ItemID       string
}

func (ReasoningSummaryPartAddedEvent) isProviderEvent() {}

// ReasoningSummaryTextDeltaEvent streams a fragment of a reasoning
// summary segment.
type ReasoningSummaryTextDeltaEvent struct {
	Index        int
	SummaryIndex int
	ItemID       string
	Delta        string
}

func (ReasoningSummaryTextDeltaEvent) isProviderEvent() {}

// ReasoningSummaryTextDoneEvent finalizes the text of a reasoning
// summary segment.
type ReasoningSummaryTextDoneEvent struct {
	Index        int
	SummaryIndex int
	ItemID       string
	Text         string
}

func (ReasoningSummaryTextDoneEvent) isProviderEvent() {}

// ReasoningSummaryPartDoneEvent closes one summary segment of a
// reasoning item.
type ReasoningSummaryPartDoneEvent struct {
	Index        int
	SummaryIndex int
	ItemID       string
	Text         string
}

func (ReasoningSummaryPartDoneEvent) isProviderEvent() {}

// OutputItemDoneEvent finalizes an output item with its complete
// content.
type OutputItemDoneEvent struct {
	Index int
	Item  core.Item
}

func (OutputItemDoneEvent) isProviderEvent() {}

// ResponseCompletedEvent closes a turn, carrying passthrough usage
// counters.
type ResponseCompletedEvent struct {
	ResponseID string
	Usage      usage.Usage
}

func (ResponseCompletedEvent) isProviderEvent() {}

// SynthesizeEvents expands a batch response into the canonical event
// sequence, deterministically: identical responses produce identical
// sequences. Used by batch normalization and by backends whose native
// wire format has no item-level stream.
func SynthesizeEvents(resp *Response) []ProviderEvent {
	events := []ProviderEvent{
		ResponseCreatedEvent{ResponseID: resp.ID},
		ResponseInProgressEvent{ResponseID: resp.ID},
	}
	for i, item := range resp.Output {
		events = append(events, OutputItemAddedEvent{Index: i, Item: item})
		if reasoning, ok := item.(core.ReasoningItem); ok {
			for si, segment := range reasoning.Summary {
				events = append(events,
					ReasoningSummaryPartAddedEvent{Index: i, SummaryIndex: si, ItemID: reasoning.ID},
					ReasoningSummaryTextDeltaEvent{Index: i, SummaryIndex: si, ItemID: reasoning.ID, Delta: segment},
					ReasoningSummaryTextDoneEvent{Index: i, SummaryIndex: si, ItemID: reasoning.ID, Text: segment},
					ReasoningSummaryPartDoneEvent{Index: i, SummaryIndex: si, ItemID: reasoning.ID, Text: segment},
				)
			}
		}
		events = append(events, OutputItemDoneEvent{Index: i, Item: item})
	}
	return append(events, ResponseCompletedEvent{ResponseID: resp.ID, Usage: resp.Usage})
}

package flow

import (
	"context"
	"fmt"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/usage"
)

// TurnResult is the consolidated outcome of one normalized turn: the
// provider response identifier, every completed (and classified) item
// in output order and the passthrough usage counters.
type TurnResult struct {
	ResponseID string
	Items      []core.Item
	Usage      usage.Usage
}

// Normalizer converts provider output into the unified stream. Streamed
// and batch turns flow through the same handler, so a batch response
// normalizes to the exact event sequence its synthesized stream would
// produce.
type Normalizer struct {
	turn  *core.TurnState
	synth *Synthesizer
	emit  Emit
}

// NewNormalizer binds a normalizer and its synthesizer to one turn.
func NewNormalizer(turn *core.TurnState, handoffToolNames map[string]struct{}, emit Emit) *Normalizer {
	return &Normalizer{
		turn:  turn,
		synth: NewSynthesizer(turn, handoffToolNames, emit),
		emit:  emit,
	}
}

// Synthesizer returns the synthesizer sharing this turn's sequence
// counter, for semantic events emitted after the provider stream ends
// (tool outputs, handoff records).
func (n *Normalizer) Synthesizer() *Synthesizer { return n.synth }

// NormalizeStream consumes a provider event stream until completion,
// relaying every event raw and deriving semantic events as items
// complete. A provider error or context cancellation aborts the turn
// with no partial result.
func (n *Normalizer) NormalizeStream(ctx context.Context, events <-chan model.ProviderEvent, errs <-chan error) (*TurnResult, error) {
	result := &TurnResult{}
	completed := false

	for events != nil || errs != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := n.handle(ev, result, &completed); err != nil {
				return nil, err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, core.NewBackendError(err)
			}
		}
	}

	if !completed {
		return nil, core.NewBackendError(fmt.Errorf("provider stream ended without completion event"))
	}

	result.Items = n.turn.Items()
	return result, nil
}

// NormalizeBatch expands a complete response into the canonical event
// sequence and runs it through the same handler as a live stream.
func (n *Normalizer) NormalizeBatch(resp *model.Response) (*TurnResult, error) {
	result := &TurnResult{}
	completed := false

	for _, ev := range model.SynthesizeEvents(resp) {
		if err := n.handle(ev, result, &completed); err != nil {
			return nil, err
		}
	}

	result.Items = n.turn.Items()
	return result, nil
}

func (n *Normalizer) handle(ev model.ProviderEvent, result *TurnResult, completed *bool) error {
	if n.emit != nil {
		if err := n.emit(core.RawEvent{Seq: n.turn.NextSeq(), Payload: ev}); err != nil {
			return err
		}
	} else {
		n.turn.NextSeq()
	}

	switch e := ev.(type) {
	case model.ResponseCreatedEvent:
		result.ResponseID = e.ResponseID
	case model.OutputItemDoneEvent:
		if _, err := n.synth.ItemCompleted(e.Item); err != nil {
			return err
		}
	case model.ResponseCompletedEvent:
		result.ResponseID = e.ResponseID
		result.Usage = e.Usage
		*completed = true
	}
	return nil
}

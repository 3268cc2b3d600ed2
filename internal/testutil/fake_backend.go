package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/usage"
)

// scriptedTurn is one queued backend reaction: either a set of output
// items or an error.
type scriptedTurn struct {
	items []core.Item
	err   error
}

// FakeBackend is a scripted model.Backend for tests. Each call consumes
// the next queued turn in order; streaming calls yield the synthesized
// canonical event sequence of the same turn, so both paths produce
// identical histories.
type FakeBackend struct {
	mu       sync.Mutex
	turns    []scriptedTurn
	next     int
	requests []model.Request
}

// NewFakeBackend constructs an empty fake backend. Queue turns with
// AddTurnOutputs / FailNext before use.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// AddTurnOutputs queues one turn producing the given output items.
func (f *FakeBackend) AddTurnOutputs(items ...core.Item) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, scriptedTurn{items: items})
	return f
}

// FailNext queues one turn failing with err.
func (f *FakeBackend) FailNext(err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, scriptedTurn{err: err})
	return f
}

// Requests returns every request received so far, in call order.
func (f *FakeBackend) Requests() []model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Request(nil), f.requests...)
}

// LastRequest returns the most recent request, or nil.
func (f *FakeBackend) LastRequest() *model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	req := f.requests[len(f.requests)-1]
	return &req
}

// GetResponse consumes the next scripted turn.
func (f *FakeBackend) GetResponse(_ context.Context, req model.Request) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	if f.next >= len(f.turns) {
		return nil, fmt.Errorf("fake backend exhausted after %d turns", len(f.turns))
	}
	turn := f.turns[f.next]
	f.next++

	if turn.err != nil {
		return nil, turn.err
	}

	output := make([]core.Item, len(turn.items))
	for i, item := range turn.items {
		output[i] = withIndex(item, i)
	}

	return &model.Response{
		ID:     fmt.Sprintf("resp-%d", f.next),
		Output: output,
		Usage:  usage.Usage{Requests: 1, InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}, nil
}

// StreamResponse consumes the next scripted turn and replays it as the
// canonical synthesized event sequence.
func (f *FakeBackend) StreamResponse(ctx context.Context, req model.Request) (<-chan model.ProviderEvent, <-chan error) {
	out := make(chan model.ProviderEvent, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := f.GetResponse(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		for _, ev := range model.SynthesizeEvents(resp) {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()

	return out, errCh
}

// Info identifies the backend as a test fake.
func (f *FakeBackend) Info() model.Info {
	return model.Info{Name: "fake-model", Provider: "fake", SupportsTools: true}
}

// withIndex stamps the output order key onto a scripted item.
func withIndex(item core.Item, index int) core.Item {
	switch it := item.(type) {
	case core.MessageItem:
		it.Index = index
		return it
	case core.ToolCallItem:
		it.Index = index
		return it
	case core.ToolCallOutputItem:
		it.Index = index
		return it
	case core.ReasoningItem:
		it.Index = index
		return it
	case core.HandoffCallItem:
		it.Index = index
		return it
	case core.HandoffOutputItem:
		it.Index = index
		return it
	default:
		return item
	}
}

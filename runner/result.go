package runner

import (
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/usage"
)

// RunResult is the consolidated outcome of a completed run.
type RunResult struct {
	// RunID identifies this run.
	RunID string
	// Input holds the items the run was started with, before any
	// session history was prepended.
	Input []core.Item
	// NewItems holds every item generated during the run in order:
	// messages, tool calls, tool outputs, reasoning and handoff records.
	NewItems []core.Item
	// FinalOutput is the text of the last assistant message of the
	// final turn.
	FinalOutput string
	// FinalAgent names the agent that produced the final output.
	FinalAgent string
	// Usage aggregates token counters across every turn of the run.
	Usage usage.Usage
}

// StreamedRun is the handle of an in-flight streamed invocation. Events
// are consumed from Events; once the channel closes, Wait returns the
// consolidated result or the error that aborted the run.
type StreamedRun struct {
	runID  string
	events chan core.StreamEvent
	cancel func()
	done   chan struct{}

	result *RunResult
	err    error
}

// RunID identifies this run, usable with Runner.Cancel.
func (s *StreamedRun) RunID() string { return s.runID }

// Events returns the ordered event stream. The channel closes when the
// run terminates, successfully or not.
func (s *StreamedRun) Events() <-chan core.StreamEvent { return s.events }

// Wait blocks until the run terminates and returns its result. Callers
// must drain Events concurrently (or buffer generously) or the run may
// stall on emission.
func (s *StreamedRun) Wait() (*RunResult, error) {
	<-s.done
	return s.result, s.err
}

// Cancel aborts the run. Pending events are dropped and Wait returns
// the cancellation error.
func (s *StreamedRun) Cancel() { s.cancel() }

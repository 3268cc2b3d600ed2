package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/flow"
	"github.com/loopkit/loopkit/logging"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/session"
	"github.com/loopkit/loopkit/usage"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxTurns limits backend invocations per run before the run aborts
	// with MaxTurnsExceededError.
	MaxTurns int
	// EventBufferSize sets channel buffering for streamed events.
	EventBufferSize int
	// Store persists conversation history across runs. Nil disables
	// persistence.
	Store session.Store
	// SessionID selects the conversation to resume. Ignored when Store
	// is nil.
	SessionID string
	// Settings are the default model invocation parameters; per-agent
	// settings override them field by field.
	Settings model.Settings
	// Logger receives structured run diagnostics.
	Logger logging.Logger
	// Tracer spans backend calls and runs. Defaults to a no-op tracer.
	Tracer trace.Tracer
}

// Runner coordinates agent execution: drives the turn loop, executes
// tools, applies handoffs, streams events and persists history. Public
// methods are safe for concurrent use.
type Runner struct {
	agent *agent.Agent

	maxTurns        int
	eventBufferSize int
	store           session.Store
	sessionID       string
	settings        model.Settings
	logger          logging.Logger
	tracer          trace.Tracer

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner rooted at the given starting agent with
// optional overrides.
func New(startAgent *agent.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxTurns:        10,
		EventBufferSize: 100,
		Logger:          logging.NoOpLogger{},
		Tracer:          noop.NewTracerProvider().Tracer("loopkit"),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           startAgent,
		maxTurns:        opts.MaxTurns,
		eventBufferSize: opts.EventBufferSize,
		store:           opts.Store,
		sessionID:       opts.SessionID,
		settings:        opts.Settings,
		logger:          opts.Logger,
		tracer:          opts.Tracer,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// Run executes the loop to completion without streaming and returns the
// consolidated result.
func (r *Runner) Run(ctx context.Context, input []core.Item) (*RunResult, error) {
	return r.execute(ctx, core.NewID(), input, nil)
}

// RunStreamed starts an asynchronous invocation whose ordered event
// stream is consumed from the returned StreamedRun. The run terminates
// when its Events channel closes; Wait then yields the result.
func (r *Runner) RunStreamed(ctx context.Context, input []core.Item) *StreamedRun {
	runID := core.NewID()

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	sr := &StreamedRun{
		runID:  runID,
		events: make(chan core.StreamEvent, r.eventBufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer func() {
			close(sr.events)
			close(sr.done)
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			cancel()
		}()

		emit := func(ev core.StreamEvent) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sr.events <- ev:
				return nil
			}
		}

		sr.result, sr.err = r.execute(ctx, runID, input, emit)
	}()

	return sr
}

// Cancel cancels a running streamed run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// execute is the shared turn loop behind Run and RunStreamed. A nil
// emit disables streaming; normalization still assigns sequence numbers
// so both paths record identical histories.
func (r *Runner) execute(ctx context.Context, runID string, input []core.Item, emit flow.Emit) (*RunResult, error) {
	ctx, runSpan := r.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("agent.name", r.agent.Name()),
	))
	defer runSpan.End()

	logger := logging.NewRunLogger(r.logger, runID, r.agent.Name())
	logger.Info("run.start")

	input = append([]core.Item(nil), input...)
	history, err := r.loadSession(ctx)
	if err != nil {
		return nil, err
	}

	state := core.NewRunState(r.agent.Name(), append(history, input...))
	current := r.agent

	var (
		totalUsage usage.Usage
		newItems   []core.Item
	)

	for !state.Done() {
		turnNo := state.BeginTurn()
		if turnNo > r.maxTurns {
			logger.Warn("run.max_turns_exceeded", "max_turns", r.maxTurns)
			return nil, &core.MaxTurnsExceededError{MaxTurns: r.maxTurns}
		}

		turn := core.NewTurnState()
		norm := flow.NewNormalizer(turn, current.HandoffToolNames(), emit)

		started := time.Now()
		result, err := r.invokeBackend(ctx, current, state.ConversationInput(), norm, emit != nil)
		logger.LogModelCall(turnNo, time.Since(started), err)
		if err != nil {
			return nil, err
		}

		totalUsage.Add(result.Usage)
		state.AppendItems(result.Items...)
		newItems = append(newItems, result.Items...)

		calls, handoffs := partitionCalls(result.Items)

		if len(calls) > 0 {
			outputs, err := r.executeToolCalls(ctx, logger, current, calls)
			if err != nil {
				return nil, err
			}
			for _, out := range outputs {
				item, err := norm.Synthesizer().ItemCompleted(out)
				if err != nil {
					return nil, err
				}
				state.AppendItems(item)
				newItems = append(newItems, item)
			}
		}

		if len(handoffs) > 0 {
			next, items, err := r.applyHandoff(ctx, current, state, handoffs, norm.Synthesizer())
			if err != nil {
				return nil, err
			}
			newItems = append(newItems, items...)
			current = next
			logger = logger.WithAgent(current.Name())
			continue
		}

		if len(calls) == 0 {
			final := core.FinalText(result.Items)
			if err := current.ValidateOutput(final); err != nil {
				logger.Warn("run.malformed_output")
				return nil, err
			}
			state.Complete(final)
		}
	}

	res := &RunResult{
		RunID:       runID,
		Input:       input,
		NewItems:    newItems,
		FinalOutput: state.FinalOutput(),
		FinalAgent:  current.Name(),
		Usage:       totalUsage,
	}

	if err := r.persistSession(ctx, input, newItems); err != nil {
		return nil, err
	}

	logger.Info("run.complete", "turns", state.Turn())

	return res, nil
}

// invokeBackend performs one model call, streamed or batch, and
// normalizes it into a turn result.
func (r *Runner) invokeBackend(ctx context.Context, current *agent.Agent, input []core.Item, norm *flow.Normalizer, streamed bool) (*flow.TurnResult, error) {
	backend := current.Backend()
	req := model.Request{
		Instructions: current.Instructions(),
		Input:        input,
		Tools:        current.ToolDefinitions(),
		Handoffs:     current.HandoffDefinitions(),
		OutputSchema: current.OutputSchema(),
		Settings:     r.effectiveSettings(current),
	}

	ctx, span := r.tracer.Start(ctx, "backend.generate", trace.WithAttributes(
		attribute.String("agent.name", current.Name()),
		attribute.String("backend.name", backend.Info().Name),
		attribute.Bool("streamed", streamed),
	))
	defer span.End()

	r.logger.Debug("backend.call", "agent", current.Name(), "backend", backend.Info().Name, "input_items", len(input))

	if streamed {
		events, errs := backend.StreamResponse(ctx, req)
		return norm.NormalizeStream(ctx, events, errs)
	}

	resp, err := backend.GetResponse(ctx, req)
	if err != nil {
		return nil, core.NewBackendError(err)
	}
	return norm.NormalizeBatch(resp)
}

// effectiveSettings overlays per-agent settings on the runner defaults,
// field by field.
func (r *Runner) effectiveSettings(a *agent.Agent) model.Settings {
	s := r.settings
	as := a.Settings()
	if as.Model != "" {
		s.Model = as.Model
	}
	if as.Temperature != 0 {
		s.Temperature = as.Temperature
	}
	if as.MaxTokens != 0 {
		s.MaxTokens = as.MaxTokens
	}
	return s
}

// loadSession returns the persisted history to prepend, or nil when
// persistence is disabled.
func (r *Runner) loadSession(ctx context.Context) ([]core.Item, error) {
	if r.store == nil || r.sessionID == "" {
		return nil, nil
	}
	history, err := r.store.Items(ctx, r.sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", r.sessionID, err)
	}
	return history, nil
}

// persistSession appends this run's input and generated items to the
// session history.
func (r *Runner) persistSession(ctx context.Context, input, generated []core.Item) error {
	if r.store == nil || r.sessionID == "" {
		return nil
	}
	items := make([]core.Item, 0, len(input)+len(generated))
	items = append(items, input...)
	items = append(items, generated...)
	if err := r.store.AppendItems(ctx, r.sessionID, items); err != nil {
		return fmt.Errorf("failed to persist session %q: %w", r.sessionID, err)
	}
	return nil
}

// partitionCalls splits a turn's items into executable tool calls and
// handoff requests, preserving output order.
func partitionCalls(items []core.Item) ([]core.ToolCallItem, []core.HandoffCallItem) {
	var calls []core.ToolCallItem
	var handoffs []core.HandoffCallItem
	for _, item := range items {
		switch it := item.(type) {
		case core.ToolCallItem:
			calls = append(calls, it)
		case core.HandoffCallItem:
			handoffs = append(handoffs, it)
		}
	}
	return calls, handoffs
}

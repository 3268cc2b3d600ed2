package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/handoff"
	"github.com/loopkit/loopkit/internal/testutil"
	"github.com/loopkit/loopkit/session"
	"github.com/loopkit/loopkit/tool"
)

func userInput(text string) []core.Item {
	return []core.Item{core.NewUserMessage(text)}
}

func TestRunSingleTurn(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("hello there"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Instructions = "be nice"
	})

	result, err := New(a).Run(context.Background(), userInput("hi"))
	require.NoError(t, err)

	assert.Equal(t, "hello there", result.FinalOutput)
	assert.Equal(t, "Assistant", result.FinalAgent)
	assert.Len(t, result.NewItems, 1)
	assert.Equal(t, int64(1), result.Usage.Requests)

	req := fake.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "be nice", req.Instructions)
	require.Len(t, req.Input, 1)
}

func TestRunToolLoop(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "lookup", "{}")).
		AddTurnOutputs(core.NewAssistantMessage("the answer is 42"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Tools = []tool.Tool{testutil.SimpleTool("lookup", "42")}
	})

	result, err := New(a).Run(context.Background(), userInput("look it up"))
	require.NoError(t, err)

	assert.Equal(t, "the answer is 42", result.FinalOutput)
	assert.Equal(t, int64(2), result.Usage.Requests)
	assert.Equal(t, int64(30), result.Usage.TotalTokens)

	// call, output, final message
	require.Len(t, result.NewItems, 3)
	out, ok := result.NewItems[1].(core.ToolCallOutputItem)
	require.True(t, ok, "expected ToolCallOutputItem, got %T", result.NewItems[1])
	assert.Equal(t, "c1", out.CallID)
	assert.Equal(t, "42", out.Output)
	assert.False(t, out.IsError)

	// The second request must carry the call and its output back to the
	// model.
	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Input, 3)
}

func TestRunRecoverableToolError(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "flaky", "{}")).
		AddTurnOutputs(core.NewAssistantMessage("sorry, the tool failed"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Tools = []tool.Tool{testutil.FailingTool("flaky", errors.New("boom"))}
	})

	result, err := New(a).Run(context.Background(), userInput("try it"))
	require.NoError(t, err)

	out, ok := result.NewItems[1].(core.ToolCallOutputItem)
	require.True(t, ok)
	assert.True(t, out.IsError)
	assert.Contains(t, out.Output, "boom")
	assert.Equal(t, "sorry, the tool failed", result.FinalOutput)
}

func TestRunFatalToolError(t *testing.T) {
	fatalTool := tool.NewFunctionTool(
		"dangerous",
		"always aborts",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *tool.Context, _ map[string]any) (any, error) {
			return nil, tool.NewFatalError("dangerous", "unrecoverable", "EXECUTION_ERROR")
		},
	)

	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "dangerous", "{}"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Tools = []tool.Tool{fatalTool}
	})

	_, err := New(a).Run(context.Background(), userInput("go"))

	var toolErr *core.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "dangerous", toolErr.Tool)
}

func TestRunUnknownToolIsFatal(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "no_such_tool", "{}"))

	a := agent.New("Assistant", fake)

	_, err := New(a).Run(context.Background(), userInput("go"))

	var toolErr *core.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "no_such_tool", toolErr.Tool)
}

func TestRunBackendFailure(t *testing.T) {
	fake := testutil.NewFakeBackend().FailNext(errors.New("rate limited"))

	a := agent.New("Assistant", fake)

	_, err := New(a).Run(context.Background(), userInput("hi"))

	var backendErr *core.BackendError
	require.ErrorAs(t, err, &backendErr)
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "lookup", "{}")).
		AddTurnOutputs(core.NewToolCall("c2", "lookup", "{}"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Tools = []tool.Tool{testutil.SimpleTool("lookup", "x")}
	})

	_, err := New(a, func(o *Options) { o.MaxTurns = 2 }).
		Run(context.Background(), userInput("loop forever"))

	var maxErr *core.MaxTurnsExceededError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 2, maxErr.MaxTurns)
}

func TestRunMalformedOutput(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("not json at all"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.OutputSchema = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer": map[string]any{"type": "string"},
			},
			"required": []string{"answer"},
		}
	})

	_, err := New(a).Run(context.Background(), userInput("answer me"))

	var malformed *core.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "not json at all", malformed.RawOutput)
}

func TestRunStructuredOutputValid(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage(`{"answer": "42"}`))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.OutputSchema = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer": map[string]any{"type": "string"},
			},
			"required": []string{"answer"},
		}
	})

	result, err := New(a).Run(context.Background(), userInput("answer me"))
	require.NoError(t, err)
	assert.Equal(t, `{"answer": "42"}`, result.FinalOutput)
}

func TestRunHandoff(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "transfer_to_billing_agent", "{}")).
		AddTurnOutputs(core.NewAssistantMessage("billing here, refund issued"))

	billing := agent.New("Billing Agent", fake, func(o *agent.Options) {
		o.Description = "Handles billing."
	})
	triage := agent.New("Triage Agent", fake, func(o *agent.Options) {
		o.Handoffs = []agent.Handoff{agent.NewHandoff(billing)}
	})

	result, err := New(triage).Run(context.Background(), userInput("I want a refund"))
	require.NoError(t, err)

	assert.Equal(t, "Billing Agent", result.FinalAgent)
	assert.Equal(t, "billing here, refund issued", result.FinalOutput)

	var sawCall, sawRecord bool
	for _, item := range result.NewItems {
		switch it := item.(type) {
		case core.HandoffCallItem:
			sawCall = true
			assert.Equal(t, "transfer_to_billing_agent", it.ToolName)
		case core.HandoffOutputItem:
			sawRecord = true
			assert.Equal(t, "Triage Agent", it.SourceAgent)
			assert.Equal(t, "Billing Agent", it.TargetAgent)
		}
	}
	assert.True(t, sawCall)
	assert.True(t, sawRecord)

	// Handoff declarations must have been advertised to the model.
	req := fake.Requests()[0]
	require.Len(t, req.Handoffs, 1)
	assert.Equal(t, "transfer_to_billing_agent", req.Handoffs[0].ToolName)

	// The second turn runs with the target agent's configuration.
	assert.Equal(t, "", fake.Requests()[1].Instructions)
	assert.Empty(t, fake.Requests()[1].Handoffs)
}

func TestRunHandoffInputFilter(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "transfer_to_billing_agent", "{}")).
		AddTurnOutputs(core.NewAssistantMessage("clean slate"))

	billing := agent.New("Billing Agent", fake)
	triage := agent.New("Triage Agent", fake, func(o *agent.Options) {
		o.Handoffs = []agent.Handoff{
			agent.NewHandoff(billing, func(o *agent.HandoffOptions) {
				o.InputFilter = handoff.RemoveAllTools
			}),
		}
	})

	_, err := New(triage).Run(context.Background(), userInput("refund please"))
	require.NoError(t, err)

	// The filtered history seen by the target must not contain the
	// handoff mechanics.
	second := fake.Requests()[1]
	for _, item := range second.Input {
		assert.False(t, core.IsToolRelated(item), "tool-related item leaked through filter: %T", item)
	}
}

func TestRunHandoffCarriesInputPayload(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewToolCall("c1", "transfer_to_billing_agent", `{"input": "refund order 123"}`)).
		AddTurnOutputs(core.NewAssistantMessage("refund for order 123 issued"))

	billing := agent.New("Billing Agent", fake)
	triage := agent.New("Triage Agent", fake, func(o *agent.Options) {
		o.Handoffs = []agent.Handoff{
			agent.NewHandoff(billing, func(o *agent.HandoffOptions) {
				o.InputFilter = handoff.RemoveAllTools
			}),
		}
	})

	result, err := New(triage).Run(context.Background(), userInput("I want a refund"))
	require.NoError(t, err)

	// The payload must reach the target as the last input item, even
	// with a filter that strips the handoff mechanics.
	second := fake.Requests()[1]
	require.NotEmpty(t, second.Input)
	last, ok := second.Input[len(second.Input)-1].(core.MessageItem)
	require.True(t, ok, "expected MessageItem, got %T", second.Input[len(second.Input)-1])
	assert.Equal(t, core.RoleUser, last.Role)
	assert.Equal(t, "refund order 123", last.Text)

	var sawPayload bool
	for _, item := range result.NewItems {
		if msg, ok := item.(core.MessageItem); ok && msg.Text == "refund order 123" {
			sawPayload = true
		}
	}
	assert.True(t, sawPayload, "handoff input payload missing from run items")
}

func TestRunMultipleHandoffsFirstWins(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(
			core.NewToolCall("c1", "transfer_to_billing_agent", "{}"),
			core.NewToolCall("c2", "transfer_to_support_agent", "{}"),
		).
		AddTurnOutputs(core.NewAssistantMessage("billing wins"))

	billing := agent.New("Billing Agent", fake)
	support := agent.New("Support Agent", fake)
	triage := agent.New("Triage Agent", fake, func(o *agent.Options) {
		o.Handoffs = []agent.Handoff{
			agent.NewHandoff(billing),
			agent.NewHandoff(support),
		}
	})

	result, err := New(triage).Run(context.Background(), userInput("help"))
	require.NoError(t, err)

	assert.Equal(t, "Billing Agent", result.FinalAgent)

	var rejected *core.ToolCallOutputItem
	for _, item := range result.NewItems {
		if out, ok := item.(core.ToolCallOutputItem); ok && out.CallID == "c2" {
			rejected = &out
		}
	}
	require.NotNil(t, rejected, "second handoff call was not answered")
	assert.True(t, rejected.IsError)
}

func TestRunSessionPersistence(t *testing.T) {
	store := session.NewInMemoryStore()

	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("noted: Lisbon")).
		AddTurnOutputs(core.NewAssistantMessage("you said Lisbon"))

	a := agent.New("Assistant", fake)
	r := New(a, func(o *Options) {
		o.Store = store
		o.SessionID = "trip"
	})

	_, err := r.Run(context.Background(), userInput("I'm going to Lisbon"))
	require.NoError(t, err)

	_, err = r.Run(context.Background(), userInput("where am I going?"))
	require.NoError(t, err)

	// The second run must see the first run's user message and reply.
	second := fake.Requests()[1]
	require.Len(t, second.Input, 3)
	first, ok := second.Input[0].(core.MessageItem)
	require.True(t, ok)
	assert.Equal(t, "I'm going to Lisbon", first.Text)

	items, err := store.Items(context.Background(), "trip", 0)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

// recordingLogger captures message names for assertions. Tool calls run
// concurrently, so access is guarded.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record(msg) }

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if m == msg {
			return true
		}
	}
	return false
}

func TestRunLogsToolCalls(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(
			core.NewToolCall("c1", "lookup", "{}"),
			core.NewToolCall("c2", "flaky", "{}"),
		).
		AddTurnOutputs(core.NewAssistantMessage("done"))

	a := agent.New("Assistant", fake, func(o *agent.Options) {
		o.Tools = []tool.Tool{
			testutil.SimpleTool("lookup", "42"),
			testutil.FailingTool("flaky", errors.New("boom")),
		}
	})

	logger := &recordingLogger{}
	_, err := New(a, func(o *Options) { o.Logger = logger }).
		Run(context.Background(), userInput("go"))
	require.NoError(t, err)

	assert.True(t, logger.has("tool.call.completed"), "successful tool execution was not logged")
	assert.True(t, logger.has("tool.call.failed"), "failed tool execution was not logged")
	assert.True(t, logger.has("model.call.completed"))
}

func TestRunnerCancelUnknownRun(t *testing.T) {
	r := New(agent.New("Assistant", testutil.NewFakeBackend()))
	assert.Error(t, r.Cancel("missing"))
}

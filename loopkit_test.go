package loopkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/internal/testutil"
)

func TestRun(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("hello"))

	a := agent.New("Assistant", fake)

	result, err := Run(context.Background(), a, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.FinalOutput)

	req := fake.LastRequest()
	require.NotNil(t, req)
	require.Len(t, req.Input, 1)
	msg, ok := req.Input[0].(core.MessageItem)
	require.True(t, ok)
	assert.Equal(t, core.RoleUser, msg.Role)
	assert.Equal(t, "hi", msg.Text)
}

func TestRunStreamed(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("streamed hello"))

	a := agent.New("Assistant", fake)

	run := RunStreamed(context.Background(), a, "hi")
	var events []core.StreamEvent
	for ev := range run.Events() {
		events = append(events, ev)
	}

	result, err := run.Wait()
	require.NoError(t, err)
	assert.Equal(t, "streamed hello", result.FinalOutput)
	assert.NotEmpty(t, events)
	assert.Equal(t, int64(0), events[0].Sequence())
}

func TestRunItems(t *testing.T) {
	fake := testutil.NewFakeBackend().
		AddTurnOutputs(core.NewAssistantMessage("ok"))

	a := agent.New("Assistant", fake)

	input := []core.Item{
		core.NewUserMessage("first"),
		core.NewUserMessage("second"),
	}
	result, err := RunItems(context.Background(), a, input)
	require.NoError(t, err)
	assert.Equal(t, input, result.Input)
}

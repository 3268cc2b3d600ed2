package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/core"
)

func TestRemoveAllTools(t *testing.T) {
	call := core.NewToolCall("c1", "lookup", "{}")
	items := []core.Item{
		core.NewUserMessage("question"),
		core.ReasoningItem{ID: "r1", Summary: []string{"hmm"}},
		call,
		core.NewToolCallOutput(call, "42", false),
		core.HandoffCallItem{ID: "h1", CallID: "c2", ToolName: "transfer_to_billing_agent"},
		core.HandoffOutputItem{ID: "h2", CallID: "c2", SourceAgent: "A", TargetAgent: "B"},
		core.NewAssistantMessage("answer"),
	}

	filtered := RemoveAllTools(items)
	require.Len(t, filtered, 3)
	assert.IsType(t, core.MessageItem{}, filtered[0])
	assert.IsType(t, core.ReasoningItem{}, filtered[1])
	assert.IsType(t, core.MessageItem{}, filtered[2])
}

func TestKeepLastN(t *testing.T) {
	items := []core.Item{
		core.NewUserMessage("one"),
		core.NewUserMessage("two"),
		core.NewUserMessage("three"),
	}

	kept := KeepLastN(2)(items)
	require.Len(t, kept, 2)
	assert.Equal(t, "two", kept[0].(core.MessageItem).Text)

	assert.Len(t, KeepLastN(5)(items), 3)
	assert.Nil(t, KeepLastN(0)(items))
}

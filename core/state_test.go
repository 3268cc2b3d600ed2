package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnStateSequence(t *testing.T) {
	turn := NewTurnState()

	assert.Equal(t, int64(0), turn.NextSeq())
	assert.Equal(t, int64(1), turn.NextSeq())
	assert.Equal(t, int64(2), turn.NextSeq())
}

func TestRunStateConversationInput(t *testing.T) {
	input := []Item{NewUserMessage("hello")}
	state := NewRunState("Assistant", input)

	reply := NewAssistantMessage("hi there")
	state.AppendItems(reply)

	conv := state.ConversationInput()
	assert.Len(t, conv, 2)
	assert.Equal(t, input[0], conv[0])
	assert.Equal(t, Item(reply), conv[1])
	assert.Equal(t, []Item{Item(reply)}, state.NewItems())
}

func TestRunStateReplaceInput(t *testing.T) {
	state := NewRunState("Triage", []Item{NewUserMessage("question")})
	state.AppendItems(NewAssistantMessage("thinking"), NewToolCall("c1", "f", "{}"))

	filtered := []Item{NewUserMessage("question")}
	state.ReplaceInput(filtered)

	assert.Equal(t, filtered, state.ConversationInput())
	assert.Empty(t, state.NewItems())
}

func TestRunStateTurnsAndCompletion(t *testing.T) {
	state := NewRunState("Assistant", nil)

	assert.Equal(t, 1, state.BeginTurn())
	assert.Equal(t, 2, state.BeginTurn())
	assert.Equal(t, 2, state.Turn())
	assert.False(t, state.Done())

	state.Complete("done")
	assert.True(t, state.Done())
	assert.Equal(t, "done", state.FinalOutput())
}

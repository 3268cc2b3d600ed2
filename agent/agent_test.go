package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/internal/testutil"
	"github.com/loopkit/loopkit/tool"
)

func TestAgentDefinitions(t *testing.T) {
	lookup := testutil.SimpleTool("lookup", "42")
	billing := New("Billing Agent", testutil.NewFakeBackend(), func(o *Options) {
		o.Description = "Handles billing."
	})

	a := New("Triage Agent", testutil.NewFakeBackend(), func(o *Options) {
		o.Instructions = "route things"
		o.Tools = []tool.Tool{lookup}
		o.Handoffs = []Handoff{NewHandoff(billing)}
	})

	defs := a.ToolDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "lookup", defs[0].Name)
	assert.Equal(t, lookup.Parameters(), defs[0].Parameters)

	hdefs := a.HandoffDefinitions()
	require.Len(t, hdefs, 1)
	assert.Equal(t, "transfer_to_billing_agent", hdefs[0].ToolName)
	assert.Contains(t, hdefs[0].Description, "Billing Agent")
	assert.Contains(t, hdefs[0].Description, "Handles billing.")

	_, ok := a.ToolByName("lookup")
	assert.True(t, ok)
	_, ok = a.ToolByName("missing")
	assert.False(t, ok)

	h, ok := a.HandoffByToolName("transfer_to_billing_agent")
	require.True(t, ok)
	assert.Same(t, billing, h.Target)

	names := a.HandoffToolNames()
	assert.Contains(t, names, "transfer_to_billing_agent")
}

func TestNewHandoffOverrides(t *testing.T) {
	target := New("Billing Agent", testutil.NewFakeBackend())

	h := NewHandoff(target, func(o *HandoffOptions) {
		o.ToolName = "escalate_billing"
		o.ToolDescription = "custom"
	})

	assert.Equal(t, "escalate_billing", h.ToolName)
	assert.Equal(t, "custom", h.ToolDescription)
	require.NotNil(t, h.Parameters)
	assert.Equal(t, "object", h.Parameters["type"])
}

func TestValidateOutput(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string"},
		},
		"required": []string{"answer"},
	}

	a := New("Assistant", testutil.NewFakeBackend(), func(o *Options) {
		o.OutputSchema = schema
	})

	assert.NoError(t, a.ValidateOutput(`{"answer": "yes"}`))

	err := a.ValidateOutput("plain text")
	var malformed *core.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "Assistant", malformed.Agent)
	assert.Equal(t, "plain text", malformed.RawOutput)

	err = a.ValidateOutput(`{"answer": 42}`)
	require.ErrorAs(t, err, &malformed)

	err = a.ValidateOutput(`{}`)
	require.ErrorAs(t, err, &malformed)
}

func TestValidateOutputNoSchema(t *testing.T) {
	a := New("Assistant", testutil.NewFakeBackend())
	assert.NoError(t, a.ValidateOutput("anything goes"))
}

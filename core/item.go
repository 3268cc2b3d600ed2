package core

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Role identifies the conversational role a message item belongs to.
type Role string

// Conversation roles understood by backends.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallKind distinguishes plain function calls from provider-defined
// custom tool calls. Both classify as `tool_called` downstream.
type ToolCallKind string

// Supported tool call kinds.
const (
	ToolCallFunction ToolCallKind = "function"
	ToolCallCustom   ToolCallKind = "custom"
)

// Item is one structured unit of conversational content produced or
// consumed during a run: a message, a tool call, a tool output, a
// reasoning block or a handoff call/result. The set of variants is
// closed; concrete types implement the unexported isItem marker.
//
// Every item carries an opaque identifier, an index/order key within the
// turn that produced it and (optionally) the raw provider-format payload
// it was reconstructed from. Items must be treated as immutable once
// constructed.
type Item interface {
	isItem()

	// ItemID returns the opaque identifier of this item.
	ItemID() string

	// ItemIndex returns the order key of this item within its turn.
	ItemIndex() int
}

// MessageItem is a role-tagged text message (user input, assistant
// output or system instruction material).
type MessageItem struct {
	ID    string          `json:"id"`
	Role  Role            `json:"role"`
	Text  string          `json:"text"`
	Index int             `json:"index"`
	Raw   json.RawMessage `json:"raw,omitempty"`
}

func (MessageItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (m MessageItem) ItemID() string { return m.ID }

// ItemIndex returns the order key of this item within its turn.
func (m MessageItem) ItemIndex() int { return m.Index }

// ToolCallItem is a model-requested invocation of a named tool.
type ToolCallItem struct {
	ID        string          `json:"id"`
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments string          `json:"arguments"`
	Kind      ToolCallKind    `json:"kind"`
	Index     int             `json:"index"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

func (ToolCallItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (t ToolCallItem) ItemID() string { return t.ID }

// ItemIndex returns the order key of this item within its turn.
func (t ToolCallItem) ItemIndex() int { return t.Index }

// ToolCallOutputItem carries the serialized result (or error text) of a
// previously requested tool call. It is fed back to the model as input
// for the following turn.
type ToolCallOutputItem struct {
	ID      string          `json:"id"`
	CallID  string          `json:"call_id"`
	Name    string          `json:"name"`
	Output  string          `json:"output"`
	IsError bool            `json:"is_error,omitempty"`
	Index   int             `json:"index"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

func (ToolCallOutputItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (t ToolCallOutputItem) ItemID() string { return t.ID }

// ItemIndex returns the order key of this item within its turn.
func (t ToolCallOutputItem) ItemIndex() int { return t.Index }

// ReasoningItem is a model reasoning block composed of one or more
// summary segments.
type ReasoningItem struct {
	ID      string          `json:"id"`
	Summary []string        `json:"summary"`
	Index   int             `json:"index"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

func (ReasoningItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (r ReasoningItem) ItemID() string { return r.ID }

// ItemIndex returns the order key of this item within its turn.
func (r ReasoningItem) ItemIndex() int { return r.Index }

// HandoffCallItem is a tool call whose target name matches one of the
// active agent's declared handoffs. It requests delegation of the rest
// of the run to another agent.
type HandoffCallItem struct {
	ID        string          `json:"id"`
	CallID    string          `json:"call_id"`
	ToolName  string          `json:"tool_name"`
	Arguments string          `json:"arguments"`
	Index     int             `json:"index"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

func (HandoffCallItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (h HandoffCallItem) ItemID() string { return h.ID }

// ItemIndex returns the order key of this item within its turn.
func (h HandoffCallItem) ItemIndex() int { return h.Index }

// HandoffOutputItem records an applied handoff: the source agent that
// requested it and the target agent now active.
type HandoffOutputItem struct {
	ID          string          `json:"id"`
	CallID      string          `json:"call_id"`
	SourceAgent string          `json:"source_agent"`
	TargetAgent string          `json:"target_agent"`
	Index       int             `json:"index"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

func (HandoffOutputItem) isItem() {}

// ItemID returns the opaque identifier of this item.
func (h HandoffOutputItem) ItemID() string { return h.ID }

// ItemIndex returns the order key of this item within its turn.
func (h HandoffOutputItem) ItemIndex() int { return h.Index }

// NewID generates a unique identifier for items, events and runs.
func NewID() string { return uuid.NewString() }

// NewUserMessage constructs a user-authored message item.
func NewUserMessage(text string) MessageItem {
	return MessageItem{ID: NewID(), Role: RoleUser, Text: text}
}

// NewAssistantMessage constructs an assistant-authored message item.
func NewAssistantMessage(text string) MessageItem {
	return MessageItem{ID: NewID(), Role: RoleAssistant, Text: text}
}

// NewToolCall constructs a function tool call item.
func NewToolCall(callID, name, arguments string) ToolCallItem {
	return ToolCallItem{
		ID:        NewID(),
		CallID:    callID,
		Name:      name,
		Arguments: arguments,
		Kind:      ToolCallFunction,
	}
}

// NewToolCallOutput constructs the output item answering the given call.
func NewToolCallOutput(call ToolCallItem, output string, isError bool) ToolCallOutputItem {
	return ToolCallOutputItem{
		ID:      NewID(),
		CallID:  call.CallID,
		Name:    call.Name,
		Output:  output,
		IsError: isError,
	}
}

// FinalText returns the text of the last assistant message in items, or
// the empty string if no assistant message is present.
func FinalText(items []Item) string {
	for i := len(items) - 1; i >= 0; i-- {
		if m, ok := items[i].(MessageItem); ok && m.Role == RoleAssistant {
			return m.Text
		}
	}
	return ""
}

// IsToolRelated reports whether the item is a tool call, a tool output
// or part of a handoff exchange. Used by handoff input filters.
func IsToolRelated(item Item) bool {
	switch item.(type) {
	case ToolCallItem, ToolCallOutputItem, HandoffCallItem, HandoffOutputItem:
		return true
	default:
		return false
	}
}

// HandoffToolName derives the default tool name advertised for a handoff
// to the named agent, e.g. "Billing Agent" -> "transfer_to_billing_agent".
func HandoffToolName(agentName string) string {
	s := strings.ToLower(strings.TrimSpace(agentName))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return "transfer_to_" + strings.Trim(s, "_")
}

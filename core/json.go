package core

import (
	"encoding/json"
	"fmt"
)

// itemEnvelope is the persisted wire form of an Item: a type tag plus
// the variant's own JSON encoding. Used by session stores.
type itemEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	itemTypeMessage        = "message"
	itemTypeToolCall       = "tool_call"
	itemTypeToolCallOutput = "tool_call_output"
	itemTypeReasoning      = "reasoning"
	itemTypeHandoffCall    = "handoff_call"
	itemTypeHandoffOutput  = "handoff_output"
)

// MarshalItem encodes an item as a self-describing JSON envelope.
func MarshalItem(item Item) ([]byte, error) {
	var typ string
	switch item.(type) {
	case MessageItem:
		typ = itemTypeMessage
	case ToolCallItem:
		typ = itemTypeToolCall
	case ToolCallOutputItem:
		typ = itemTypeToolCallOutput
	case ReasoningItem:
		typ = itemTypeReasoning
	case HandoffCallItem:
		typ = itemTypeHandoffCall
	case HandoffOutputItem:
		typ = itemTypeHandoffOutput
	default:
		return nil, fmt.Errorf("unknown item type %T", item)
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemEnvelope{Type: typ, Data: data})
}

// UnmarshalItem decodes an envelope produced by MarshalItem.
func UnmarshalItem(data []byte) (Item, error) {
	var env itemEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case itemTypeMessage:
		var it MessageItem
		return it, json.Unmarshal(env.Data, &it)
	case itemTypeToolCall:
		var it ToolCallItem
		return it, json.Unmarshal(env.Data, &it)
	case itemTypeToolCallOutput:
		var it ToolCallOutputItem
		return it, json.Unmarshal(env.Data, &it)
	case itemTypeReasoning:
		var it ReasoningItem
		return it, json.Unmarshal(env.Data, &it)
	case itemTypeHandoffCall:
		var it HandoffCallItem
		return it, json.Unmarshal(env.Data, &it)
	case itemTypeHandoffOutput:
		var it HandoffOutputItem
		return it, json.Unmarshal(env.Data, &it)
	default:
		return nil, fmt.Errorf("unknown item envelope type %q", env.Type)
	}
}

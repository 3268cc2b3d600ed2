// Package anthropic provides a model.Backend wrapper for the Anthropic
// Claude Messages API. Batch responses are mapped into normalized
// items; streaming is expressed by synthesizing the canonical event
// sequence from a completed response, since the Messages API has no
// item-level stream matching the unified grammar.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/usage"
)

// Options configures the Anthropic backend adapter (temperature, model
// id, max tokens, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Backend wraps the Anthropic Messages API behind the generic
// model.Backend interface.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Backend{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic backend from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Backend{
		client: client,
		opts:   opts,
	}
}

// GetResponse performs a Messages API call and maps the content blocks
// into normalized items.
func (b *Backend) GetResponse(ctx context.Context, req model.Request) (*model.Response, error) {
	params := b.buildParams(req)

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var items []core.Item
	index := 0
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text == "" {
				continue
			}
			items = append(items, core.MessageItem{
				ID:    core.NewID(),
				Role:  core.RoleAssistant,
				Text:  textBlock.Text,
				Index: index,
			})
			index++
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}
			items = append(items, core.ToolCallItem{
				ID:        core.NewID(),
				CallID:    toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
				Kind:      core.ToolCallFunction,
				Index:     index,
			})
			index++
		case "thinking":
			thinkingBlock := block.AsThinking()
			if thinkingBlock.Thinking == "" {
				continue
			}
			items = append(items, core.ReasoningItem{
				ID:      core.NewID(),
				Summary: []string{thinkingBlock.Thinking},
				Index:   index,
			})
			index++
		}
	}

	return &model.Response{
		ID:     resp.ID,
		Output: items,
		Usage: usage.Usage{
			Requests:     1,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// StreamResponse fetches the complete response and expands it into the
// canonical event sequence.
func (b *Backend) StreamResponse(ctx context.Context, req model.Request) (<-chan model.ProviderEvent, <-chan error) {
	out := make(chan model.ProviderEvent, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := b.GetResponse(ctx, req)
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

// buildParams assembles the Messages API parameters.
func (b *Backend) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       b.opts.Model,
		Messages:    buildMessages(req.Input),
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}
	if req.Settings.Model != "" {
		params.Model = anthropic.Model(req.Settings.Model)
	}
	if req.Settings.Temperature != 0 {
		params.Temperature = anthropic.Float(req.Settings.Temperature)
	}
	if req.Settings.MaxTokens != 0 {
		params.MaxTokens = req.Settings.MaxTokens
	}

	if systemBlocks := buildSystemBlocks(req); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	tools := buildTools(req.Tools, req.Handoffs)
	if len(tools) > 0 {
		params.Tools = tools
	}

	return params
}

// buildSystemBlocks collects instructions plus system-role messages.
func buildSystemBlocks(req model.Request) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, item := range req.Input {
		if m, ok := item.(core.MessageItem); ok && m.Role == core.RoleSystem && m.Text != "" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: m.Text})
		}
	}
	return systemBlocks
}

// buildMessages converts normalized items to the Messages API format.
// Tool and handoff calls become assistant tool_use blocks; their
// outputs become user tool_result blocks answering the call ID.
func buildMessages(input []core.Item) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, item := range input {
		switch it := item.(type) {
		case core.MessageItem:
			if it.Role == core.RoleSystem || it.Text == "" {
				continue
			}
			block := anthropic.NewTextBlock(it.Text)
			if it.Role == core.RoleAssistant {
				messages = append(messages, anthropic.NewAssistantMessage(block))
			} else {
				messages = append(messages, anthropic.NewUserMessage(block))
			}
		case core.ToolCallItem:
			messages = append(messages, anthropic.NewAssistantMessage(toolUseBlock(it.CallID, it.Name, it.Arguments)))
		case core.HandoffCallItem:
			messages = append(messages, anthropic.NewAssistantMessage(toolUseBlock(it.CallID, it.ToolName, it.Arguments)))
		case core.ToolCallOutputItem:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(it.CallID, it.Output, it.IsError)))
		case core.HandoffOutputItem:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(it.CallID, fmt.Sprintf(`{"assistant": %q}`, it.TargetAgent), false)))
		case core.ReasoningItem:
			// Reasoning items are not replayed as input blocks.
		}
	}

	return messages
}

// toolUseBlock builds an assistant tool_use block from serialized
// arguments.
func toolUseBlock(callID, name, arguments string) anthropic.ContentBlockParamUnion {
	var input interface{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &input); err != nil {
			input = arguments // fallback to string
		}
	}
	return anthropic.NewToolUseBlock(callID, input, name)
}

// buildTools converts tool and handoff declarations to the Anthropic
// tool format.
func buildTools(tools []model.ToolDefinition, handoffs []model.HandoffDefinition) []anthropic.ToolUnionParam {
	var anthropicTools []anthropic.ToolUnionParam

	for _, tdef := range tools {
		anthropicTools = append(anthropicTools, anthropic.ToolUnionParamOfTool(inputSchema(tdef.Parameters), tdef.Name))
	}
	for _, hdef := range handoffs {
		anthropicTools = append(anthropicTools, anthropic.ToolUnionParamOfTool(inputSchema(hdef.Parameters), hdef.ToolName))
	}

	return anthropicTools
}

// inputSchema maps a generic JSON schema into the tool input schema
// parameter.
func inputSchema(parameters map[string]any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if parameters == nil {
		return schema
	}
	if properties, exists := parameters["properties"]; exists {
		schema.Properties = properties
	}
	if required, exists := parameters["required"]; exists {
		if reqSlice, ok := required.([]string); ok {
			schema.Required = reqSlice
		} else if reqInterface, ok := required.([]interface{}); ok {
			var reqStrings []string
			for _, r := range reqInterface {
				if s, ok := r.(string); ok {
					reqStrings = append(reqStrings, s)
				}
			}
			schema.Required = reqStrings
		}
	}
	return schema
}

// Info returns metadata describing this Anthropic backend implementation.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:          string(b.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

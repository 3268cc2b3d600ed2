// Package openai provides an implementation of model.Backend using the
// OpenAI Chat Completions API (including streaming + function/tool
// calling). It adapts loopkit's normalized Request/Response structures
// into the SDK's message format and back, and expresses streamed
// chunks as canonical provider events.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/model"
	"github.com/loopkit/loopkit/usage"
)

// aggCall aggregates partial tool call streaming deltas (id, name,
// arguments) allowing reconstruction of complete tool call items when
// the finish reason is emitted. Internal helper (unexported).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI backend adapter.
// Fields mirror a subset of Chat Completion parameters intentionally
// kept minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Backend wraps the OpenAI Chat Completions API behind the generic
// model.Backend interface.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI backend using the official client with
// credentials from the environment.
func New(optFns ...func(o *Options)) *Backend {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI backend from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// GetResponse performs a non-streaming completion and maps the choice
// into normalized items.
func (b *Backend) GetResponse(ctx context.Context, req model.Request) (*model.Response, error) {
	resp, err := b.client.Chat.Completions.New(ctx, b.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]
	var items []core.Item
	index := 0
	if ch0.Message.Content != "" {
		items = append(items, core.MessageItem{
			ID:    core.NewID(),
			Role:  core.RoleAssistant,
			Text:  ch0.Message.Content,
			Index: index,
		})
		index++
	}
	for _, tc := range ch0.Message.ToolCalls {
		items = append(items, core.ToolCallItem{
			ID:        core.NewID(),
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
			Kind:      core.ToolCallFunction,
			Index:     index,
		})
		index++
	}

	return &model.Response{
		ID:     resp.ID,
		Output: items,
		Usage: usage.Usage{
			Requests:     1,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// StreamResponse performs a streaming completion, relaying text deltas
// as they arrive and finalizing items when the stream ends.
func (b *Backend) StreamResponse(ctx context.Context, req model.Request) (<-chan model.ProviderEvent, <-chan error) {
	out := make(chan model.ProviderEvent, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := b.buildParams(req)
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}

		stream := b.client.Chat.Completions.NewStreaming(ctx, params)

		emit := func(ev model.ProviderEvent) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- ev:
				return true
			}
		}

		var (
			started     bool
			responseID  string
			msgID       string
			textBuilder strings.Builder
			toolAgg     = map[int64]*aggCall{}
			toolOrder   []int64
			u           usage.Usage
		)

		for stream.Next() {
			ck := stream.Current()
			if !started {
				started = true
				responseID = ck.ID
				if !emit(model.ResponseCreatedEvent{ResponseID: responseID}) {
					return
				}
				if !emit(model.ResponseInProgressEvent{ResponseID: responseID}) {
					return
				}
			}
			if ck.Usage.TotalTokens > 0 {
				u = usage.Usage{
					Requests:     1,
					InputTokens:  ck.Usage.PromptTokens,
					OutputTokens: ck.Usage.CompletionTokens,
					TotalTokens:  ck.Usage.TotalTokens,
				}
			}
			for _, ch := range ck.Choices {
				if ch.Delta.Content != "" {
					if msgID == "" {
						msgID = core.NewID()
						added := core.MessageItem{ID: msgID, Role: core.RoleAssistant}
						if !emit(model.OutputItemAddedEvent{Index: 0, Item: added}) {
							return
						}
					}
					textBuilder.WriteString(ch.Delta.Content)
					if !emit(model.OutputTextDeltaEvent{Index: 0, ItemID: msgID, Delta: ch.Delta.Content}) {
						return
					}
				}
				for _, tc := range ch.Delta.ToolCalls {
					ac, ok := toolAgg[tc.Index]
					if !ok {
						ac = &aggCall{}
						toolAgg[tc.Index] = ac
						toolOrder = append(toolOrder, tc.Index)
					}
					if tc.ID != "" {
						ac.id = tc.ID
					}
					if tc.Function.Name != "" {
						ac.name = tc.Function.Name
					}
					if tc.Function.Arguments != "" {
						ac.args += tc.Function.Arguments
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
			return
		}
		if !started {
			errCh <- fmt.Errorf("openai stream produced no chunks")
			return
		}

		index := 0
		if msgID != "" {
			done := core.MessageItem{ID: msgID, Role: core.RoleAssistant, Text: textBuilder.String(), Index: index}
			if !emit(model.OutputItemDoneEvent{Index: index, Item: done}) {
				return
			}
			index++
		}
		for _, idx := range toolOrder {
			ac := toolAgg[idx]
			call := core.ToolCallItem{
				ID:        core.NewID(),
				CallID:    ac.id,
				Name:      ac.name,
				Arguments: ac.args,
				Kind:      core.ToolCallFunction,
				Index:     index,
			}
			if !emit(model.OutputItemAddedEvent{Index: index, Item: call}) {
				return
			}
			if !emit(model.OutputItemDoneEvent{Index: index, Item: call}) {
				return
			}
			index++
		}
		emit(model.ResponseCompletedEvent{ResponseID: responseID, Usage: u})
	}()

	return out, errCh
}

// buildParams assembles the OpenAI request parameters including tool
// and handoff declarations.
func (b *Backend) buildParams(req model.Request) openai.ChatCompletionNewParams {
	settings := req.Settings
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               b.opts.Model,
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
	}
	if settings.Model != "" {
		params.Model = settings.Model
	}
	if settings.Temperature != 0 {
		params.Temperature = openai.Float(settings.Temperature)
	}
	if settings.MaxTokens != 0 {
		params.MaxCompletionTokens = openai.Int(settings.MaxTokens)
	}

	var tools []openai.ChatCompletionToolParam
	for _, tdef := range req.Tools {
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		})
	}
	for _, hdef := range req.Handoffs {
		tools = append(tools, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        hdef.ToolName,
				Description: openai.String(hdef.Description),
				Parameters:  hdef.Parameters,
			},
		})
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	return params
}

// buildMessages converts normalized items into OpenAI chat messages.
// Tool and handoff calls become assistant tool-call messages; their
// outputs become tool messages answering the originating call ID.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, item := range req.Input {
		switch it := item.(type) {
		case core.MessageItem:
			switch it.Role {
			case core.RoleSystem:
				messages = append(messages, openai.SystemMessage(it.Text))
			case core.RoleAssistant:
				messages = append(messages, openai.AssistantMessage(it.Text))
			default:
				messages = append(messages, openai.UserMessage(it.Text))
			}
		case core.ToolCallItem:
			messages = append(messages, assistantToolCall(it.CallID, it.Name, it.Arguments))
		case core.HandoffCallItem:
			messages = append(messages, assistantToolCall(it.CallID, it.ToolName, it.Arguments))
		case core.ToolCallOutputItem:
			messages = append(messages, openai.ToolMessage(it.Output, it.CallID))
		case core.HandoffOutputItem:
			messages = append(messages, openai.ToolMessage(fmt.Sprintf(`{"assistant": %q}`, it.TargetAgent), it.CallID))
		case core.ReasoningItem:
			// Chat completions has no reasoning input channel.
		}
	}
	return messages
}

// assistantToolCall builds an assistant message carrying exactly one
// tool call.
func assistantToolCall(callID, name, arguments string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
		Role: "assistant",
		ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
			ID:   callID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}}
}

// Info returns metadata describing this OpenAI backend implementation.
func (b *Backend) Info() model.Info {
	return model.Info{
		Name:          b.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/logging"
	"github.com/loopkit/loopkit/tool"
)

// executeToolCalls runs a turn's tool calls concurrently and returns
// their outputs in call order. A fatal tool failure aborts the whole
// batch; recoverable failures become error-flagged outputs instead.
func (r *Runner) executeToolCalls(ctx context.Context, logger *logging.RunLogger, current *agent.Agent, calls []core.ToolCallItem) ([]core.ToolCallOutputItem, error) {
	outputs := make([]core.ToolCallOutputItem, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			out, err := r.executeToolCall(gctx, logger, current, call)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outputs, nil
}

// executeToolCall resolves and invokes one tool. Recoverable failures
// are folded into the returned output item with IsError set; a non-nil
// error is fatal and carries *core.ToolExecutionError.
func (r *Runner) executeToolCall(ctx context.Context, logger *logging.RunLogger, current *agent.Agent, call core.ToolCallItem) (core.ToolCallOutputItem, error) {
	t, ok := current.ToolByName(call.Name)
	if !ok {
		return core.ToolCallOutputItem{}, &core.ToolExecutionError{
			Tool: call.Name,
			Err:  fmt.Errorf("agent %q has no tool named %q", current.Name(), call.Name),
		}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return core.NewToolCallOutput(call, fmt.Sprintf("invalid tool arguments: %v", err), true), nil
		}
	}

	toolCtx := tool.NewContext(ctx, call.CallID, current.Name(), logger)
	started := time.Now()
	result, err := t.Call(toolCtx, args)
	logger.LogToolCall(call.Name, time.Since(started), err)
	if err != nil {
		var toolErr *tool.Error
		if errors.As(err, &toolErr) && toolErr.Fatal {
			return core.ToolCallOutputItem{}, &core.ToolExecutionError{
				Tool: call.Name,
				Err:  toolErr,
			}
		}
		return core.NewToolCallOutput(call, err.Error(), true), nil
	}

	serialized, err := serializeToolResult(result)
	if err != nil {
		return core.NewToolCallOutput(call, fmt.Sprintf("failed to serialize tool result: %v", err), true), nil
	}
	return core.NewToolCallOutput(call, serialized, false), nil
}

// serializeToolResult renders a tool's return value for conversation
// history. Strings pass through; everything else is JSON encoded.
func serializeToolResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

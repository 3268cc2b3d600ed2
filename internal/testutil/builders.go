package testutil

import (
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/tool"
)

// SimpleTool builds a function tool that ignores its arguments and
// returns a fixed result.
func SimpleTool(name, result string) *tool.FunctionTool {
	return tool.NewFunctionTool(
		name,
		"test tool "+name,
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *tool.Context, _ map[string]any) (any, error) {
			return result, nil
		},
	)
}

// FailingTool builds a function tool that always returns err.
func FailingTool(name string, err error) *tool.FunctionTool {
	return tool.NewFunctionTool(
		name,
		"failing test tool "+name,
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ *tool.Context, _ map[string]any) (any, error) {
			return nil, err
		},
	)
}

// Reasoning builds a reasoning item from summary segments.
func Reasoning(segments ...string) core.ReasoningItem {
	return core.ReasoningItem{ID: core.NewID(), Summary: segments}
}

package memory

import (
	"fmt"
	"strings"

	"github.com/loopkit/loopkit/tool"
)

// NewRecallTool exposes a memory store to agents as a function tool.
// The model supplies a query string; matches are returned as a newline
// separated list the model can quote from.
func NewRecallTool(store Store, sessionID string) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"recall_memory",
		"Search past conversation memories for relevant information",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Text to search for in past conversations",
				},
			},
			"required": []string{"query"},
		},
		func(toolCtx *tool.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			results, err := store.Search(toolCtx.Context(), sessionID, query, 5)
			if err != nil {
				return nil, fmt.Errorf("memory search failed: %w", err)
			}
			if len(results) == 0 {
				return "No matching memories found.", nil
			}
			lines := make([]string, 0, len(results))
			for _, res := range results {
				lines = append(lines, "- "+res.Content)
			}
			return strings.Join(lines, "\n"), nil
		},
	)
}

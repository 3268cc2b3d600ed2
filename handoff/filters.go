// Package handoff provides reusable input filters for handoff
// declarations. A filter rewrites the conversation history before the
// target agent sees it.
package handoff

import "github.com/loopkit/loopkit/core"

// RemoveAllTools strips tool calls, tool outputs and handoff records
// from the history, leaving only message and reasoning items. Useful
// when the target agent should see a clean conversation without the
// mechanics that led to the transfer.
func RemoveAllTools(items []core.Item) []core.Item {
	filtered := make([]core.Item, 0, len(items))
	for _, item := range items {
		if core.IsToolRelated(item) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// KeepLastN truncates the history to its final n items. A non-positive
// n yields an empty history.
func KeepLastN(n int) func(items []core.Item) []core.Item {
	return func(items []core.Item) []core.Item {
		if n <= 0 {
			return nil
		}
		if len(items) <= n {
			return append([]core.Item(nil), items...)
		}
		return append([]core.Item(nil), items[len(items)-n:]...)
	}
}

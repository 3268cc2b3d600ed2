// Package memory provides long-lived conversational recall that
// outlives a single session history: runs record message content into a
// Store, and agents query it through a recall tool. The in-memory
// implementation uses naive substring search; swap in a vector DB or
// semantic index for production retrieval without changing callers.
package memory

// Package runner implements the core orchestration layer for loopkit.
//
// The Runner drives the multi-turn agent loop: it invokes the active
// agent's backend, normalizes the turn through the flow package,
// executes requested tool calls, applies handoffs and decides when the
// run is complete. It bridges high-level loopkit operations and the
// low-level backend/tool implementations.
//
// # Responsibilities (abridged)
//   - Turn loop orchestration (streamed + sync execution paths)
//   - Concurrent tool execution with recoverable/fatal error folding
//   - Handoff resolution, input filtering and agent switching
//   - Session history loading and persistence
//   - Run lifecycle management and cancellation
//
// See runner.go for the operational implementation details.
package runner

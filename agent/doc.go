// Package agent defines the declarative agent model: a named bundle of
// instructions, tools, handoff targets and an optional output contract,
// bound to a model backend. Agents are pure configuration; the runner
// package executes them.
package agent

// Package loopkit provides a high-level façade over the runner
// orchestration layer enabling rapid construction of multi-turn,
// tool-calling agent systems. Most applications interact with this
// package by:
//  1. Defining agents (instructions, tools, handoffs) via the agent package
//  2. Running them synchronously with Run or streamed with RunStreamed
//  3. Optionally wiring a session store so consecutive runs share history
//
// The façade delegates orchestration to runner.Runner while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// durable session store and a structured logger.
package loopkit

import (
	"context"

	"github.com/loopkit/loopkit/agent"
	"github.com/loopkit/loopkit/core"
	"github.com/loopkit/loopkit/runner"
)

// Run executes startAgent against the given text input and blocks until
// the run completes. Options are forwarded to the runner.
func Run(ctx context.Context, startAgent *agent.Agent, input string, optFns ...func(o *runner.Options)) (*runner.RunResult, error) {
	r := runner.New(startAgent, optFns...)
	return r.Run(ctx, []core.Item{core.NewUserMessage(input)})
}

// RunStreamed starts a streamed run of startAgent against the given
// text input. Consume events from the returned handle and call Wait for
// the consolidated result.
func RunStreamed(ctx context.Context, startAgent *agent.Agent, input string, optFns ...func(o *runner.Options)) *runner.StreamedRun {
	r := runner.New(startAgent, optFns...)
	return r.RunStreamed(ctx, []core.Item{core.NewUserMessage(input)})
}

// RunItems is like Run but starts from pre-built items instead of a
// single user message.
func RunItems(ctx context.Context, startAgent *agent.Agent, input []core.Item, optFns ...func(o *runner.Options)) (*runner.RunResult, error) {
	r := runner.New(startAgent, optFns...)
	return r.Run(ctx, input)
}

package tool

import (
	"context"

	"github.com/loopkit/loopkit/logging"
)

// Context carries per-invocation execution scope into a tool call: the
// ambient cancellation context, the function call identifier correlating
// the model request with this execution, the requesting agent's name and
// a logger.
type Context struct {
	ctx    context.Context
	callID string
	agent  string
	logger logging.Logger
}

// NewContext constructs a tool Context. A nil logger is replaced by
// NoOpLogger.
func NewContext(ctx context.Context, callID, agent string, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{ctx: ctx, callID: callID, agent: agent, logger: logger}
}

// Context returns the ambient cancellation context.
func (c *Context) Context() context.Context { return c.ctx }

// CallID returns the function call identifier this execution answers.
func (c *Context) CallID() string { return c.callID }

// AgentName returns the name of the agent that requested the call.
func (c *Context) AgentName() string { return c.agent }

// Logger returns the logger bound to this invocation.
func (c *Context) Logger() logging.Logger { return c.logger }

// Done mirrors context.Context's Done.
func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (c *Context) Err() error { return c.ctx.Err() }

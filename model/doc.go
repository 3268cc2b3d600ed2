// Package model defines the provider-agnostic backend contract for
// loopkit and the canonical provider event grammar every backend
// dialect is normalized into.
//
// Core goals:
//   - Unify streaming + non-streaming (batch) generation behind a single
//     Backend interface
//   - Normalize tool / handoff declarations (ToolDefinition,
//     HandoffDefinition) independent of wire format
//   - Express every dialect (native responses API, chat-completions
//     style) as one ProviderEvent sequence: created, in_progress, per
//     item added/…/done, completed
//   - Keep request/response shapes minimal and transport independent
//
// Providers (e.g. OpenAI, Anthropic) implement the Backend interface
// from this package so higher layers (flow, runner) remain decoupled
// from vendor SDKs.
package model

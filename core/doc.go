// Package core defines the provider-agnostic building blocks of loopkit:
// the sealed Item variants that make up a conversation turn, the stream
// event union delivered to external consumers (raw passthrough events,
// synthesized run-item events, agent-updated events), per-turn and
// per-run state containers, and the error taxonomy shared by every layer.
//
// Items are immutable once constructed; corrections always produce a new
// item. The package has no knowledge of concrete model providers; raw
// provider payloads travel through it as opaque values.
package core

// Package flow turns provider output into the ordered event stream and
// item history the run loop consumes. The Normalizer ingests canonical
// provider events (streamed or synthesized from a batch response) and
// relays each as a raw event; the Synthesizer classifies every completed
// item and derives exactly one semantic run-item event for it.
//
// Both paths share a single per-turn sequence counter, so raw and
// semantic events interleave with strictly increasing sequence numbers
// and a turn's first event is always sequence 0.
package flow

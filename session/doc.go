// Package session houses conversation history stores. A Store persists
// the ordered item history of a session so consecutive runs can resume
// the same conversation without the caller replaying it.
//
// Two implementations ship with the module: a volatile in-memory store
// for tests and ephemeral demos, and a SQLite-backed store for durable
// single-node persistence. Add additional backends (Redis, Postgres)
// without changing any calling code; only the wiring layer decides
// which implementation to instantiate.
package session

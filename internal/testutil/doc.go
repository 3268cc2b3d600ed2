// Package testutil provides shared helpers for package tests: a
// scripted fake backend implementing model.Backend and small factories
// for tools and items. Not part of the public API.
package testutil

// Package session houses concrete implementations of core.HistoryStore and
// the reconciliation rule that keeps one assistant entry per reasoning turn.
// The interface itself lives in the core package so higher level packages
// (agent, facade) do not depend on concrete storage.
//
// Add additional backends (Redis, Postgres, etc.) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package session

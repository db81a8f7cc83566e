// Package storage provides the history.Store implementations: a SQLite
// store for persistence and an in-memory store for tests.
package storage

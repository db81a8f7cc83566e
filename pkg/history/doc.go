// Package history archives engine runs. Compliance findings only matter
// if they can be produced later, unchanged: the store is append-only and
// every record carries a SHA-256 hash chained to its predecessor, so a
// retroactively edited finding breaks verification.
//
// The storage subpackage provides the SQLite store used by the CLI and
// an in-memory store for tests; the export subpackage renders stored
// runs as CSV or JSON.
package history

// Package datasource provides the row source abstraction the evaluation
// engine consumes, and the format-specific readers behind it.
//
// A Source yields an ordered, finite sequence of rows and is restartable:
// every Open iterates from the beginning in the same order, so repeated
// runs over unchanged data produce identical results. The engine never
// inspects file bytes itself; new formats are new Source implementations,
// not engine changes.
//
// The Registry resolver maps a rule's data_source reference to a Source:
// named sources configured up front take precedence, then file paths are
// resolved by extension under the data directory (.csv, .tsv, .json,
// .jsonl, .ndjson, .db, .sqlite, .sqlite3). SQLite references select their
// table with a fragment, as in audit.db#logins.
//
// All readers funnel raw cells through the same inference rules
// (InferValue), so a value compares the same way regardless of the format
// it arrived in.
package datasource

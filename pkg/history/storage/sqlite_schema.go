package storage

// SchemaVersion is the current history database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the history schema.
const Schema = `
-- Archived runs, one row per engine run, in insertion order. The hash
-- chain depends on rowid ordering, so rows are never updated in place.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,

    -- RFC3339 UTC timestamps
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    recorded_at TEXT NOT NULL,

    -- Summary counts
    total_rules INTEGER NOT NULL,
    passed_rules INTEGER NOT NULL,
    failed_rules INTEGER NOT NULL,
    errored_rules INTEGER NOT NULL,
    skipped_rules INTEGER NOT NULL,
    violations INTEGER NOT NULL,
    cancelled INTEGER NOT NULL,

    -- Per-rule results as JSON
    results TEXT NOT NULL,

    -- Tamper-evidence chain
    prev_hash TEXT NOT NULL,
    hash TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InsertSchemaVersion inserts the schema version row.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the newest schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

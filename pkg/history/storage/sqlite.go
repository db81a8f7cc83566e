package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qustavo/dotsql"
	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"corvid-labs/vigil/pkg/history"
)

//go:embed queries.sql
var queriesSQL string

// queries holds the named statements from queries.sql. A parse failure
// here is a build defect, not a runtime condition.
var queries = mustLoadQueries()

func mustLoadQueries() *dotsql.DotSql {
	dot, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		panic(fmt.Sprintf("history/storage: parse embedded queries: %v", err))
	}
	return dot
}

// SQLiteConfig contains configuration for the SQLite history store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s.
	BusyTimeout time.Duration
}

// SQLiteStore implements history.Store on a SQLite file with WAL mode
// enabled. Saves serialize through a transaction so the hash chain never
// forks even when watch mode and the scheduler share a store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the history database at
// cfg.Path and verifies its schema version.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, history.NewStorageError("sqlite", "open", errors.New("path cannot be empty"))
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, history.NewStorageError("sqlite", "open", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With(slog.String("component", "history.storage.sqlite")),
	}

	if err := s.initialize(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("history store initialized", slog.String("path", cfg.Path))
	return s, nil
}

// initialize enables WAL mode, sets the busy timeout, and creates and
// verifies the schema.
func (s *SQLiteStore) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return history.NewStorageError("sqlite", "enable_wal", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return history.NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return history.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return history.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return history.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return history.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Save appends a record, chaining its hash to the latest stored record.
func (s *SQLiteStore) Save(ctx context.Context, record *history.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return history.NewStorageError("sqlite", "save", err)
	}
	defer tx.Rollback()

	var prevHash string
	latest, err := queries.Raw("latest-hash")
	if err != nil {
		return history.NewStorageError("sqlite", "save", err)
	}
	if err := tx.QueryRowContext(ctx, latest).Scan(&prevHash); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return history.NewStorageError("sqlite", "save", err)
	}

	record.RecordedAt = time.Now().UTC()
	record.PrevHash = prevHash
	record.Hash = history.ChainHash(record, prevHash)

	insert, err := queries.Raw("insert-run")
	if err != nil {
		return history.NewStorageError("sqlite", "save", err)
	}
	if _, err := tx.ExecContext(ctx, insert,
		record.ID,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
		record.RecordedAt.Format(time.RFC3339Nano),
		record.Summary.TotalRules,
		record.Summary.PassedRules,
		record.Summary.FailedRules,
		record.Summary.ErroredRules,
		record.Summary.SkippedRules,
		record.Summary.Violations,
		record.Cancelled,
		string(record.Results),
		record.PrevHash,
		record.Hash,
	); err != nil {
		return history.NewStorageError("sqlite", "save", err)
	}

	if err := tx.Commit(); err != nil {
		return history.NewStorageError("sqlite", "save", err)
	}
	return nil
}

// Get retrieves one record by run ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*history.Record, error) {
	get, err := queries.Raw("get-run")
	if err != nil {
		return nil, history.NewStorageError("sqlite", "get", err)
	}
	record, err := scanRecord(s.db.QueryRowContext(ctx, get, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, history.NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// List retrieves records matching the query, newest first.
func (s *SQLiteStore) List(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	if query == nil {
		query = &history.Query{}
	}

	var since, until string
	if query.Since != nil {
		since = query.Since.UTC().Format(time.RFC3339Nano)
	}
	if query.Until != nil {
		until = query.Until.UTC().Format(time.RFC3339Nano)
	}
	limit := int64(query.Limit)
	if limit == 0 {
		limit = -1 // sqlite: no limit
	}

	list, err := queries.Raw("list-runs")
	if err != nil {
		return nil, history.NewStorageError("sqlite", "list", err)
	}
	rows, err := s.db.QueryContext(ctx, list, since, until, limit, query.Offset)
	if err != nil {
		return nil, history.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, history.NewStorageError("sqlite", "list", err)
	}
	return records, nil
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	count, err := queries.Raw("count-runs")
	if err != nil {
		return 0, history.NewStorageError("sqlite", "count", err)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, count).Scan(&n); err != nil {
		return 0, history.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteBefore removes records whose run started before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	del, err := queries.Raw("delete-before")
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	res, err := s.db.ExecContext(ctx, del, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	return n, nil
}

// DeleteOldest removes the n oldest records.
func (s *SQLiteStore) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	del, err := queries.Raw("delete-oldest")
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	res, err := s.db.ExecContext(ctx, del, n)
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, history.NewStorageError("sqlite", "delete", err)
	}
	return deleted, nil
}

// Verify recomputes the hash chain over every stored record.
func (s *SQLiteStore) Verify(ctx context.Context) error {
	all, err := queries.Raw("all-runs-asc")
	if err != nil {
		return history.NewStorageError("sqlite", "verify", err)
	}
	rows, err := s.db.QueryContext(ctx, all)
	if err != nil {
		return history.NewStorageError("sqlite", "verify", err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return history.NewStorageError("sqlite", "verify", err)
	}
	return history.VerifyRecords(records)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*history.Record, error) {
	var (
		rec                                        history.Record
		startedAt, finishedAt, recordedAt, results string
	)
	if err := row.Scan(
		&rec.ID, &startedAt, &finishedAt, &recordedAt,
		&rec.Summary.TotalRules, &rec.Summary.PassedRules, &rec.Summary.FailedRules,
		&rec.Summary.ErroredRules, &rec.Summary.SkippedRules,
		&rec.Summary.Violations, &rec.Cancelled, &results,
		&rec.PrevHash, &rec.Hash,
	); err != nil {
		return nil, err
	}

	var err error
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	if rec.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}
	rec.Results = []byte(results)
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*history.Record, error) {
	var records []*history.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

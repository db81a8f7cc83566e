package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"corvid-labs/vigil/pkg/engine"
)

// Record is one archived run. Records are append-only: once written they
// are never updated, and each carries a hash chained to its predecessor
// so tampering with stored findings is detectable.
type Record struct {
	// ID is the run ID the engine assigned.
	ID string `json:"id"`

	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// RecordedAt is when the record was written to the store.
	RecordedAt time.Time `json:"recorded_at"`

	// Summary mirrors the run's aggregate counts.
	Summary engine.Summary `json:"summary"`

	// Cancelled reports whether the run was cut short.
	Cancelled bool `json:"cancelled"`

	// Results is the JSON serialization of the per-rule results,
	// violations included, exactly as the run produced them.
	Results json.RawMessage `json:"results"`

	// PrevHash is the hash of the previous record in the store, empty
	// for the first record.
	PrevHash string `json:"prev_hash"`

	// Hash covers this record's content and PrevHash.
	Hash string `json:"hash"`
}

// NewRecord converts a finished run into a storable record. The hash
// fields are filled in by the store at save time, once the predecessor
// is known.
func NewRecord(run *engine.RunResult) (*Record, error) {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal run results: %w", err)
	}
	return &Record{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary,
		Cancelled:  run.Cancelled,
		Results:    results,
	}, nil
}

// RuleResults decodes the archived per-rule results.
func (r *Record) RuleResults() ([]*engine.RuleResult, error) {
	var results []*engine.RuleResult
	if err := json.Unmarshal(r.Results, &results); err != nil {
		return nil, fmt.Errorf("unmarshal run results: %w", err)
	}
	return results, nil
}

// Query selects run records. The zero Query matches everything.
type Query struct {
	// Since and Until bound StartedAt, both inclusive.
	Since *time.Time
	Until *time.Time

	// Limit caps the number of records returned; 0 means no cap.
	Limit int

	// Offset skips that many records, for paging.
	Offset int
}

// Store is the run history persistence interface. Implementations must
// keep records in insertion order; the hash chain depends on it.
type Store interface {
	// Save appends a record, computing its chain hash from the previous
	// record. The record's Hash and PrevHash fields are filled in.
	Save(ctx context.Context, record *Record) error

	// Get retrieves one record by run ID. Returns ErrNotFound if no
	// record has that ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List retrieves records matching the query, newest first.
	List(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records whose run started before cutoff and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the n oldest records and returns how many
	// were removed.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Verify walks the chain oldest-first and recomputes every hash.
	// A mismatch is reported as a ChainError.
	Verify(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

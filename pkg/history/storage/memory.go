package storage

import (
	"context"
	"sync"
	"time"

	"corvid-labs/vigil/pkg/history"
)

// MemoryStore implements history.Store in memory, for tests and for runs
// where history is disabled but code paths still want a store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*history.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save appends a record, chaining its hash to the latest stored record.
func (s *MemoryStore) Save(_ context.Context, record *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevHash string
	if n := len(s.records); n > 0 {
		prevHash = s.records[n-1].Hash
	}
	record.RecordedAt = time.Now().UTC()
	record.PrevHash = prevHash
	record.Hash = history.ChainHash(record, prevHash)

	clone := *record
	s.records = append(s.records, &clone)
	return nil
}

// Get retrieves one record by run ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, history.ErrNotFound
}

// List retrieves records matching the query, newest first.
func (s *MemoryStore) List(_ context.Context, query *history.Query) ([]*history.Record, error) {
	if query == nil {
		query = &history.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*history.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if query.Since != nil && rec.StartedAt.Before(*query.Since) {
			continue
		}
		if query.Until != nil && rec.StartedAt.After(*query.Until) {
			continue
		}
		matched = append(matched, rec)
	}

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	out := make([]*history.Record, len(matched))
	for i, rec := range matched {
		clone := *rec
		out[i] = &clone
	}
	return out, nil
}

// Count returns the total number of records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore removes records whose run started before cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*history.Record
	var deleted int64
	for _, rec := range s.records {
		if rec.StartedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// DeleteOldest removes the n oldest records.
func (s *MemoryStore) DeleteOldest(_ context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return 0, nil
	}
	if n > int64(len(s.records)) {
		n = int64(len(s.records))
	}
	s.records = s.records[n:]
	return n, nil
}

// Verify recomputes the hash chain over every stored record.
func (s *MemoryStore) Verify(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return history.VerifyRecords(s.records)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

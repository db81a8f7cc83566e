package datasource

import (
	"context"
	"errors"
	"io"
)

// Memory is an in-process source backed by a fixed slice of rows. It is
// the source used by library callers that already hold their records, and
// by tests. Rows are shared, not copied; callers must not mutate them
// after handing them over.
type Memory struct {
	name string
	rows []Row
}

// NewMemory creates an in-process source.
func NewMemory(name string, rows []Row) *Memory {
	return &Memory{name: name, rows: rows}
}

// Name returns the source name given at construction.
func (s *Memory) Name() string { return s.name }

// Open returns an iterator over the rows in slice order.
func (s *Memory) Open(ctx context.Context) (RowIterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryIterator{rows: s.rows}, nil
}

type memoryIterator struct {
	rows []Row
	next int
}

func (it *memoryIterator) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.next >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.next]
	it.next++
	return row, nil
}

func (it *memoryIterator) Close() error { return nil }

// RowOf builds a typed row from plain Go values, applying the same
// conversion as the JSON readers. Convenient for tests and for callers
// embedding the engine.
func RowOf(fields map[string]interface{}) Row {
	row := make(Row, len(fields))
	for k, v := range fields {
		row[k] = ValueOf(v)
	}
	return row
}

// StaticResolver resolves references from a fixed map. Tests use it to
// drive the engine without touching the filesystem.
type StaticResolver map[string]Source

var errUnknownRef = errors.New("no source registered for reference")

// Resolve looks the reference up in the map.
func (r StaticResolver) Resolve(ctx context.Context, ref string) (Source, error) {
	if src, ok := r[ref]; ok {
		return src, nil
	}
	return nil, NewResolutionError(ref, errUnknownRef)
}

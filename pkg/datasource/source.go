package datasource

import (
	"context"
	"fmt"

	"corvid-labs/vigil/pkg/vex/ast"
)

// Row is one record from a data source: field name to typed value.
// Rows are immutable by convention once produced; the engine never
// writes to them.
type Row map[string]ast.Value

// RowIterator walks a source's rows in order. Next returns io.EOF after
// the last row. Iterators are not safe for concurrent use; each rule
// evaluation opens its own.
type RowIterator interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// Source is an ordered, finite, restartable sequence of rows. Every call
// to Open starts a fresh iteration from the beginning, in the same order.
type Source interface {
	// Name identifies the source in results and logs, typically the
	// reference it was resolved from.
	Name() string

	// Open begins a new iteration. The context bounds any I/O performed
	// while opening and iterating.
	Open(ctx context.Context) (RowIterator, error)
}

// Resolver maps a rule's data_source reference to a Source.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Source, error)
}

// ResolutionError indicates a data_source reference could not be turned
// into a usable source: missing file, unsupported format, or a failure in
// the underlying reader. It is fatal for the rule that referenced it and
// for that rule only.
type ResolutionError struct {
	Ref   string
	Cause error
}

// Error returns the error message.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve data source %q: %v", e.Ref, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// NewResolutionError wraps cause as a resolution failure for ref.
func NewResolutionError(ref string, cause error) *ResolutionError {
	return &ResolutionError{Ref: ref, Cause: cause}
}

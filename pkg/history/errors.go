package history

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record matches a requested run ID.
var ErrNotFound = errors.New("run record not found")

// StorageError represents a failure in the history storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "open", "save", "list", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// ChainError reports a broken hash chain: a stored record whose hash does
// not match its recorded content, or a link that does not point at its
// predecessor.
type ChainError struct {
	RecordID string
	Reason   string
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	return fmt.Sprintf("hash chain broken at record %s: %s", e.RecordID, e.Reason)
}

// ExportError represents a failure while exporting run history.
type ExportError struct {
	Format string
	Cause  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s]: %v", e.Format, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates an ExportError.
func NewExportError(format string, cause error) *ExportError {
	return &ExportError{Format: format, Cause: cause}
}

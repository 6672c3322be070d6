package ledger

import (
	"errors"
	"fmt"

	"nutrilog/internal/core"
)

var (
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrCorruptLedger      = errors.New("corrupt ledger")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateID        = errors.New("duplicate record id")
)

// IndexError reports a positional mutation against an index outside the
// current ledger.
type IndexError struct {
	Key   core.DateKey
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("ledger %s: index %d out of range [0,%d)", e.Key, e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// CorruptLedgerError reports a stored value that does not decode as a
// record list.
type CorruptLedgerError struct {
	Key core.DateKey
	Err error
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("ledger %s: corrupt value: %v", e.Key, e.Err)
}

func (e *CorruptLedgerError) Is(target error) bool {
	return target == ErrCorruptLedger
}

func (e *CorruptLedgerError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed get or set on the key-value backend.
type StorageError struct {
	Op  string
	Key core.DateKey
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s: %s: %v", e.Key, e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the backend cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

package sortmerge

import "errors"

var (
	// ErrNilTuple is returned when a nil tuple is added.
	ErrNilTuple = errors.New("sortmerge: nil tuple")

	// ErrArityMismatch is returned when a tuple's length differs from the
	// first tuple the sorter saw. Compare panics with it.
	ErrArityMismatch = errors.New("sortmerge: tuple arity mismatch")

	// ErrKindMismatch is returned when an element's kind differs from the
	// kind earlier tuples carried at the same position.
	ErrKindMismatch = errors.New("sortmerge: element kind mismatch")

	// ErrInvalidMaxInMemory is returned when maxInMemory is not positive.
	ErrInvalidMaxInMemory = errors.New("sortmerge: maxInMemory must be positive")

	// ErrSorterFailed is returned by every call after a merge failed.
	ErrSorterFailed = errors.New("sortmerge: sorter failed")

	// ErrDisposed is returned by every call after Dispose.
	ErrDisposed = errors.New("sortmerge: sorter disposed")
)

package symbol

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by every operation on a closed registry.
	ErrClosed = errors.New("symbol registry closed")

	// ErrReservedID is returned by Put for NullID.
	ErrReservedID = errors.New("symbol id 0 is reserved")

	// ErrEmptyName is returned by Put for an empty name.
	ErrEmptyName = errors.New("symbol name is empty")

	// ErrExhausted is returned when the allocator has handed out MaxID.
	ErrExhausted = errors.New("symbol id space exhausted")
)

// DurabilityError reports a backing store failure.
//
// In-memory state is left consistent; changes that were not committed stay
// queued for the next Flush.
type DurabilityError struct {
	// Op is the registry operation that touched the store ("open", "flush", "close").
	Op string

	// Pending is the number of changes still waiting for a successful commit.
	Pending int

	// Err is the underlying store error.
	Err error
}

// Error implements the error interface.
func (e *DurabilityError) Error() string {
	if e.Pending > 0 {
		return fmt.Sprintf("symbol registry %s: durability failure (%d pending): %v", e.Op, e.Pending, e.Err)
	}
	return fmt.Sprintf("symbol registry %s: durability failure: %v", e.Op, e.Err)
}

func (e *DurabilityError) Unwrap() error {
	return e.Err
}

// IsDurabilityError returns true if err wraps a *DurabilityError.
func IsDurabilityError(err error) bool {
	var de *DurabilityError
	return errors.As(err, &de)
}

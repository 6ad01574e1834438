package symbol

import (
	"context"
	"math"
)

// ID identifies an interned name within one registry.
type ID uint32

const (
	// NullID is the reserved "no symbol" id. It is never bound to a name.
	NullID ID = 0

	// MaxID is the largest id the allocator hands out.
	MaxID ID = math.MaxUint32
)

// NullName is what SymbolName reports for NullID.
const NullName = "<null>"

// Symbol is an interned (id, name) pair.
type Symbol struct {
	ID   ID
	Name string
}

// Change is a single journaled mutation of the id → name mapping.
// An empty Name removes whatever binding ID had.
type Change struct {
	ID   ID
	Name string
}

// Removed reports whether the change drops the binding for ID.
func (c Change) Removed() bool {
	return c.Name == ""
}

// Backend is the durable backing store capability the registry needs.
//
// Opening or creating the store is the job of the concrete constructor.
// A Backend is owned by exactly one Registry once Open succeeds.
type Backend interface {
	// Load calls fn for every persisted symbol in ascending id order.
	Load(ctx context.Context, fn func(Symbol) error) error

	// Commit applies changes in order. When Commit returns nil every
	// change in the batch must survive a crash.
	Commit(ctx context.Context, changes []Change) error

	// Close releases the store.
	Close() error
}

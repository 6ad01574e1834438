package symbol

import "sync/atomic"

// Allocator hands out fresh symbol ids above a high-water mark.
//
// Every id returned by Next is strictly greater than the mark observed at the
// time of the call, and no id is ever returned twice. Ids may be skipped:
// a caller that loses an interning race simply throws its id away.
//
// Thread-safety: Allocator is safe for concurrent use (atomic operations).
type Allocator struct {
	mark atomic.Uint32
}

// NewAllocator creates an allocator whose first id will be 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// NewAllocatorAt creates an allocator with the given high-water mark.
// Used when reopening a durable registry so new ids land above persisted ones.
func NewAllocatorAt(mark ID) *Allocator {
	a := &Allocator{}
	a.mark.Store(uint32(mark))
	return a
}

// Next advances the mark and returns the new id.
// Returns false once MaxID has been handed out.
func (a *Allocator) Next() (ID, bool) {
	for {
		cur := a.mark.Load()
		if ID(cur) == MaxID {
			return NullID, false
		}
		if a.mark.CompareAndSwap(cur, cur+1) {
			return ID(cur + 1), true
		}
	}
}

// Advance raises the mark to id if id is above it. Never lowers the mark.
func (a *Allocator) Advance(id ID) {
	for {
		cur := a.mark.Load()
		if uint32(id) <= cur {
			return
		}
		if a.mark.CompareAndSwap(cur, uint32(id)) {
			return
		}
	}
}

// Current returns the high-water mark without advancing it.
func (a *Allocator) Current() ID {
	return ID(a.mark.Load())
}

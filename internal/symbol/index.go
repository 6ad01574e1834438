package symbol

import (
	"sync"
	"sync/atomic"

	"github.com/zhangyunhao116/skipmap"
)

// forwardIndex maps name → id. Keys are written once on the interning path;
// only Put ever overwrites or removes them.
type forwardIndex struct {
	m     sync.Map // string → ID
	count atomic.Int64
}

func (f *forwardIndex) load(name string) (ID, bool) {
	v, ok := f.m.Load(name)
	if !ok {
		return NullID, false
	}
	return v.(ID), true
}

// insert binds name to id unless name is already bound.
// Returns the id now bound to name and whether this call created the binding.
func (f *forwardIndex) insert(name string, id ID) (ID, bool) {
	v, loaded := f.m.LoadOrStore(name, id)
	if loaded {
		return v.(ID), false
	}
	f.count.Add(1)
	return id, true
}

// store unconditionally binds name to id.
func (f *forwardIndex) store(name string, id ID) {
	if _, loaded := f.m.Swap(name, id); !loaded {
		f.count.Add(1)
	}
}

// removeIf drops name only while it is still bound to id.
func (f *forwardIndex) removeIf(name string, id ID) {
	if f.m.CompareAndDelete(name, id) {
		f.count.Add(-1)
	}
}

func (f *forwardIndex) size() int {
	return int(f.count.Load())
}

// reverseIndex maps id → name in ascending id order. Entries may be staged
// ahead of the forward index; readers must confirm them against it (see
// Registry.confirmed).
type reverseIndex struct {
	m *skipmap.OrderedMap[ID, string]
}

func newReverseIndex() reverseIndex {
	return reverseIndex{m: skipmap.New[ID, string]()}
}

func (r *reverseIndex) load(id ID) (string, bool) {
	return r.m.Load(id)
}

func (r *reverseIndex) store(id ID, name string) {
	r.m.Store(id, name)
}

func (r *reverseIndex) remove(id ID) {
	r.m.Delete(id)
}

// ascend walks entries with id >= from in ascending order until fn returns
// false. Entries stored or removed during the walk may or may not be seen.
func (r *reverseIndex) ascend(from ID, fn func(ID, string) bool) {
	r.m.Range(func(id ID, name string) bool {
		if id < from {
			return true
		}
		return fn(id, name)
	})
}

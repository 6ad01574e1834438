package symbol

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// MemoryBackend keeps committed symbols in process memory.
//
// It outlives the registries opened on it, which makes it a stand-in for a
// real store in tests and for short-lived tools that want the journaling
// semantics without disk I/O. Reopening after Close is allowed.
type MemoryBackend struct {
	mu      sync.Mutex
	symbols map[ID]string
	open    bool
	commits int
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{symbols: make(map[ID]string), open: true}
}

// Reopen marks a closed backend as usable again.
func (m *MemoryBackend) Reopen() *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return m
}

// Load implements Backend.
func (m *MemoryBackend) Load(ctx context.Context, fn func(Symbol) error) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return errors.New("memory backend is closed")
	}
	snapshot := maps.Clone(m.symbols)
	m.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(snapshot)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(Symbol{ID: id, Name: snapshot[id]}); err != nil {
			return err
		}
	}
	return nil
}

// Commit implements Backend.
func (m *MemoryBackend) Commit(ctx context.Context, changes []Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return errors.New("memory backend is closed")
	}
	for _, c := range changes {
		if c.Removed() {
			delete(m.symbols, c.ID)
			continue
		}
		m.symbols[c.ID] = c.Name
	}
	m.commits++
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// Len returns the number of committed symbols.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.symbols)
}

// Commits returns how many Commit calls succeeded.
func (m *MemoryBackend) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

package symbol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry interns names into compact ids.
//
// A Registry is safe for concurrent use, with the exception of Put (see Put).
// Create one with New (in memory only) or Open (backed by a Backend) and hand
// the pointer to every consumer.
type Registry struct {
	fwd   forwardIndex
	rev   reverseIndex
	alloc *Allocator

	closed atomic.Bool
	// gate is held shared by writers from their closed check until their
	// change is journaled. Close takes it exclusively before the final flush.
	gate sync.RWMutex

	// mu serializes access to the backend.
	mu      sync.Mutex
	backend Backend
	durable bool

	jmu     sync.Mutex
	journal []Change

	instance uuid.UUID
	opts     options
	logger   *zap.Logger
}

// New creates an empty in-memory registry.
func New(opts ...Option) *Registry {
	return newRegistry(NewAllocator(), nil, opts)
}

// Open creates a registry backed by b, loading everything b has persisted.
//
// The allocator resumes from the highest persisted id, so new symbols never
// collide with stored ones. On error the caller still owns b.
func Open(ctx context.Context, b Backend, opts ...Option) (*Registry, error) {
	if b == nil {
		return nil, errors.New("open symbol registry: nil backend")
	}
	r := newRegistry(NewAllocator(), b, opts)

	start := time.Now()
	err := b.Load(ctx, func(s Symbol) error {
		if s.ID == NullID || s.Name == "" {
			return fmt.Errorf("invalid persisted symbol (id=%d, name=%q)", s.ID, s.Name)
		}
		if prev, ok := r.fwd.load(s.Name); ok && prev != s.ID {
			// Load runs in ascending id order: the newest binding wins and the
			// stale row is scheduled for removal on the next flush.
			r.logger.Warn("duplicate persisted symbol name",
				zap.String("name", s.Name),
				zap.Uint32("stale_id", uint32(prev)),
				zap.Uint32("id", uint32(s.ID)))
			r.rev.remove(prev)
			r.record(Change{ID: prev})
		}
		r.rev.store(s.ID, s.Name)
		r.fwd.store(s.Name, s.ID)
		r.alloc.Advance(s.ID)
		return nil
	})
	if err != nil {
		return nil, &DurabilityError{Op: "open", Err: err}
	}

	r.logger.Info("symbol registry opened",
		zap.Int("symbols", r.fwd.size()),
		zap.Uint32("high_water", uint32(r.alloc.Current())),
		zap.Duration("elapsed", time.Since(start)))
	return r, nil
}

func newRegistry(alloc *Allocator, b Backend, opts []Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	instance, err := uuid.NewV7()
	if err != nil {
		instance = uuid.New()
	}

	return &Registry{
		rev:      newReverseIndex(),
		alloc:    alloc,
		backend:  b,
		durable:  b != nil,
		instance: instance,
		opts:     o,
		logger:   o.logger.With(zap.Stringer("registry", instance)),
	}
}

// SymbolID returns the id bound to name, interning name on first use.
//
// The empty name maps to NullID without touching the registry. Concurrent
// first-time calls for the same name all observe the same id.
func (r *Registry) SymbolID(name string) (ID, error) {
	if r.closed.Load() {
		return NullID, ErrClosed
	}
	if name == "" {
		return NullID, nil
	}
	name = r.normalize(name)

	if id, ok := r.fwd.load(name); ok {
		return id, nil
	}

	r.gate.RLock()
	defer r.gate.RUnlock()
	if r.closed.Load() {
		return NullID, ErrClosed
	}

	candidate, ok := r.alloc.Next()
	if !ok {
		return NullID, ErrExhausted
	}

	// Stage the reverse entry first so that whoever sees the id in the
	// forward index can always resolve it.
	r.rev.store(candidate, name)
	id, won := r.fwd.insert(name, candidate)
	if !won {
		r.rev.remove(candidate)
		r.opts.metrics.lostRace()
		return id, nil
	}

	r.record(Change{ID: candidate, Name: name})
	r.opts.metrics.interned()
	r.logger.Debug("adding symbol", zap.String("name", name), zap.Uint32("id", uint32(candidate)))
	return candidate, nil
}

// SymbolName returns the name bound to id.
//
// NullID yields NullName. An id that was never bound yields ok == false;
// that is a normal result, not an error.
func (r *Registry) SymbolName(id ID) (name string, ok bool, err error) {
	if r.closed.Load() {
		return "", false, ErrClosed
	}
	if id == NullID {
		return NullName, true, nil
	}
	name, ok = r.confirmed(id)
	return name, ok, nil
}

// confirmed looks id up in the reverse index and accepts the entry only if
// the forward index agrees. Staged or discarded candidates never pass.
func (r *Registry) confirmed(id ID) (string, bool) {
	name, ok := r.rev.load(id)
	if !ok {
		return "", false
	}
	fid, ok := r.fwd.load(name)
	if !ok || fid != id {
		return "", false
	}
	return name, true
}

// Put binds name to id, overwriting any earlier binding of either.
//
// This is the import path for externally assigned ids. It is not safe to call
// concurrently with SymbolID or with another Put: callers must run imports
// before interning traffic starts or hold their own lock around both. The
// high-water mark is raised to id so later allocations stay above it.
func (r *Registry) Put(id ID, name string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if id == NullID {
		return ErrReservedID
	}
	if name == "" {
		return ErrEmptyName
	}
	name = r.normalize(name)

	r.gate.RLock()
	defer r.gate.RUnlock()
	if r.closed.Load() {
		return ErrClosed
	}

	if prev, ok := r.fwd.load(name); ok && prev != id {
		r.rev.remove(prev)
		r.record(Change{ID: prev})
	}
	if old, ok := r.rev.load(id); ok && old != name {
		r.fwd.removeIf(old, id)
	}
	r.rev.store(id, name)
	r.fwd.store(name, id)
	r.alloc.Advance(id)

	r.record(Change{ID: id, Name: name})
	r.opts.metrics.put()
	r.logger.Debug("putting symbol", zap.String("name", name), zap.Uint32("id", uint32(id)))
	return nil
}

// Size returns the number of names currently bound.
// Under concurrent interning this is a snapshot.
func (r *Registry) Size() (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return r.fwd.size(), nil
}

// HighWater, InstanceID, Durable and Pending are diagnostic accessors. They
// stay readable after Close and report the final state.

// HighWater returns the largest id allocated or imported so far.
func (r *Registry) HighWater() ID {
	return r.alloc.Current()
}

// InstanceID identifies this registry instance in logs and diagnostics.
func (r *Registry) InstanceID() uuid.UUID {
	return r.instance
}

// Durable reports whether the registry has a backing store.
func (r *Registry) Durable() bool {
	return r.durable
}

// Ascend calls fn for every symbol with id >= from in ascending id order,
// stopping early when fn returns false. The walk is weakly consistent:
// symbols bound while it runs may or may not be visited.
func (r *Registry) Ascend(from ID, fn func(Symbol) bool) error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.rev.ascend(from, func(id ID, _ string) bool {
		name, ok := r.confirmed(id)
		if !ok {
			return true
		}
		return fn(Symbol{ID: id, Name: name})
	})
	return nil
}

// Pending returns the number of changes waiting for the next Flush.
func (r *Registry) Pending() int {
	r.jmu.Lock()
	defer r.jmu.Unlock()
	return len(r.journal)
}

// Flush commits every change journaled so far to the backend.
// It is a no-op for an in-memory registry.
//
// On failure the uncommitted changes stay queued and a *DurabilityError is
// returned. In-memory lookups are unaffected either way.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}
	return r.flushLocked(ctx, "flush")
}

// Close flushes and releases the backend. After Close every operation,
// including another Close, returns ErrClosed.
//
// The registry is closed even when the final flush or the backend close
// fails; both failures are reported.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if !r.durable {
		return nil
	}

	// Writers that passed their closed check finish journaling first, so
	// every id handed out is in the final batch.
	r.gate.Lock()
	defer r.gate.Unlock()

	flushErr := r.flushLocked(context.Background(), "close")
	closeErr := r.backend.Close()
	if closeErr != nil {
		r.logger.Error("closing symbol store", zap.Error(closeErr))
	}

	switch {
	case flushErr == nil && closeErr == nil:
		r.logger.Info("symbol registry closed", zap.Int("symbols", r.fwd.size()))
		return nil
	case closeErr == nil:
		return flushErr
	default:
		var de *DurabilityError
		pending := 0
		if errors.As(flushErr, &de) {
			pending = de.Pending
			flushErr = de.Err
		}
		return &DurabilityError{Op: "close", Pending: pending, Err: errors.Join(flushErr, closeErr)}
	}
}

// flushLocked must be called with r.mu held.
func (r *Registry) flushLocked(ctx context.Context, op string) error {
	if !r.durable {
		return nil
	}

	batch := r.takeJournal()
	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	err := r.backend.Commit(ctx, batch)
	r.opts.metrics.flushed(time.Since(start), err)
	if err != nil {
		r.requeue(batch)
		pending := r.Pending()
		r.logger.Error("symbol flush failed",
			zap.String("op", op),
			zap.Int("batch", len(batch)),
			zap.Int("pending", pending),
			zap.Error(err))
		return &DurabilityError{Op: op, Pending: pending, Err: err}
	}

	r.logger.Debug("symbols flushed", zap.String("op", op), zap.Int("batch", len(batch)))
	return nil
}

func (r *Registry) record(c Change) {
	if !r.durable {
		return
	}
	r.jmu.Lock()
	r.journal = append(r.journal, c)
	r.jmu.Unlock()
}

func (r *Registry) takeJournal() []Change {
	r.jmu.Lock()
	defer r.jmu.Unlock()
	batch := r.journal
	r.journal = nil
	return batch
}

// requeue puts a failed batch back ahead of anything journaled since.
func (r *Registry) requeue(batch []Change) {
	r.jmu.Lock()
	defer r.jmu.Unlock()
	r.journal = append(batch, r.journal...)
}

func (r *Registry) normalize(name string) string {
	if !r.opts.normalize || r.opts.form.IsNormalString(name) {
		return name
	}
	return r.opts.form.String(name)
}

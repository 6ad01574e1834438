// Package symbol implements the symbol registry: a concurrent, optionally
// durable, bidirectional mapping between names and compact integer ids.
//
// Tracing and statistics code interns repeated strings (class names, method
// signatures, tags) once and carries the resulting ID around instead.
//
// # Structure
//
//   - Forward index: name → ID, a write-once-per-key concurrent map. Hot path.
//   - Reverse index: ID → name. Source of truth for durability and ordered scans.
//   - Allocator: monotonic high-water mark; fresh ids are always above it.
//   - Journal: changes not yet committed to the Backend (durable registries only).
//
// # Concurrency
//
// SymbolID, SymbolName, Size and Ascend never take a lock. A miss in SymbolID
// allocates a candidate with a CAS on the allocator, stages it in the reverse
// index and then races an insert-if-absent on the forward index. The loser drops
// its staged candidate; the id is never reused. A reverse entry is only reported
// once the forward index confirms it, so no caller ever observes a half-written
// symbol.
//
// Put is an administrative import path and must be serialized by the caller
// against interning traffic and other Put calls.
//
// Flush and Close are the only blocking operations. There is no package-level
// registry: the owning process constructs one and hands it to its consumers.
package symbol

// Package store provides SQLite-backed durable storage for symbol registries.
//
// A Store implements symbol.Backend. The id → name mapping lives in a single
// table:
//
//	symbols(id INTEGER PRIMARY KEY, name TEXT NOT NULL)
//
// # Critical Patterns
//
// Ordered Load
//   - SELECT ... ORDER BY id ASC, so the registry rebuilds its indexes in id order
//
// Atomic Commit
//   - Each Commit is one transaction; changes apply in journal order
//   - Upsert on id for bindings, DELETE for removed bindings
//
// Name Uniqueness
//   - UNIQUE index on name (schema v1) backs the registry's bijection on disk
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: A committed flush survives power loss
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Two drivers are supported: mattn/go-sqlite3 ("sqlite3", cgo, default) and
// modernc.org/sqlite ("sqlite", pure Go).
package store

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/symreg/internal/symbol"
)

var _ symbol.Backend = (*Store)(nil)

var errClosed = errors.New("store is closed")

// Load calls fn for every stored symbol in ascending id order.
func (s *Store) Load(ctx context.Context, fn func(symbol.Symbol) error) error {
	if s.db == nil {
		return fmt.Errorf("load symbols: %w", errClosed)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM symbols
		ORDER BY id ASC
	`)
	if err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("load symbols: scan: %w", err)
		}
		if id <= 0 || id > int64(symbol.MaxID) {
			return fmt.Errorf("load symbols: id %d out of range", id)
		}
		if err := fn(symbol.Symbol{ID: symbol.ID(id), Name: name}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}
	return nil
}

// Commit applies changes in order inside a single transaction.
// A binding upserts the row for its id; a removal deletes it.
func (s *Store) Commit(ctx context.Context, changes []symbol.Change) error {
	if s.db == nil {
		return fmt.Errorf("commit symbols: %w", errClosed)
	}
	if len(changes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit symbols: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`)
	if err != nil {
		return fmt.Errorf("commit symbols: prepare upsert: %w", err)
	}
	defer upsert.Close()

	remove, err := tx.PrepareContext(ctx, `DELETE FROM symbols WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("commit symbols: prepare delete: %w", err)
	}
	defer remove.Close()

	for _, c := range changes {
		if c.Removed() {
			_, err = remove.ExecContext(ctx, int64(c.ID))
		} else {
			_, err = upsert.ExecContext(ctx, int64(c.ID), c.Name)
		}
		if err != nil {
			return fmt.Errorf("commit symbols: id %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit symbols: %w", err)
	}
	return nil
}

// Count returns the number of stored symbols.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("count symbols: %w", errClosed)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&n); err != nil {
		return 0, fmt.Errorf("count symbols: %w", err)
	}
	return n, nil
}

// Package badgerstore persists symbol registries in a BadgerDB directory.
//
// Keys are "sym/" followed by the big-endian id, so a prefix scan yields
// symbols in ascending id order. Values are the raw name bytes.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/roach88/symreg/internal/symbol"
)

var keyPrefix = []byte("sym/")

var _ symbol.Backend = (*Store)(nil)

// Store implements symbol.Backend on top of BadgerDB.
type Store struct {
	db       *badgerdb.DB
	dir      string
	inMemory bool
	logger   *zap.Logger
}

// Option configures Open.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	inMemory bool
}

// WithLogger routes badger's internal logging to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithInMemory keeps all data in memory. Nothing survives Close.
func WithInMemory() Option {
	return func(c *config) {
		c.inMemory = true
	}
}

// Open creates or opens a badger database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	var bopts badgerdb.Options
	if cfg.inMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			return nil, errors.New("badger directory is required")
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		bopts = badgerdb.DefaultOptions(dir)
	}

	// Durability comes from the explicit Sync at the end of Commit.
	bopts = bopts.
		WithSyncWrites(false).
		WithLogger(newBadgerLogger(cfg.logger)).
		WithNumMemtables(2).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	cfg.logger.Info("badger symbol store opened", zap.String("dir", dir), zap.Bool("in_memory", cfg.inMemory))
	return &Store{db: db, dir: dir, inMemory: cfg.inMemory, logger: cfg.logger}, nil
}

// Load calls fn for every stored symbol in ascending id order.
func (s *Store) Load(ctx context.Context, fn func(symbol.Symbol) error) error {
	if s.db == nil {
		return errors.New("load symbols: store is closed")
	}
	return s.db.View(func(txn *badgerdb.Txn) error {
		iopts := badgerdb.DefaultIteratorOptions
		iopts.Prefix = keyPrefix
		it := txn.NewIterator(iopts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id, err := decodeKey(item.Key())
			if err != nil {
				return fmt.Errorf("load symbols: %w", err)
			}
			name, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("load symbols: id %d: %w", id, err)
			}
			if err := fn(symbol.Symbol{ID: id, Name: string(name)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Commit applies changes in order and syncs them to disk.
// Batches larger than one badger transaction are split; order is preserved.
func (s *Store) Commit(ctx context.Context, changes []symbol.Change) error {
	if s.db == nil {
		return errors.New("commit symbols: store is closed")
	}
	if len(changes) == 0 {
		return nil
	}

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := apply(txn, c)
		if errors.Is(err, badgerdb.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("commit symbols: %w", err)
			}
			txn = s.db.NewTransaction(true)
			err = apply(txn, c)
		}
		if err != nil {
			return fmt.Errorf("commit symbols: id %d: %w", c.ID, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit symbols: %w", err)
	}
	if s.inMemory {
		return nil
	}
	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("commit symbols: sync: %w", err)
	}
	return nil
}

// Close closes the database. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Dir returns the database directory.
func (s *Store) Dir() string {
	return s.dir
}

func apply(txn *badgerdb.Txn, c symbol.Change) error {
	if c.Removed() {
		return txn.Delete(encodeKey(c.ID))
	}
	return txn.Set(encodeKey(c.ID), []byte(c.Name))
}

func encodeKey(id symbol.ID) []byte {
	key := make([]byte, len(keyPrefix)+4)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint32(key[len(keyPrefix):], uint32(id))
	return key
}

func decodeKey(key []byte) (symbol.ID, error) {
	if len(key) != len(keyPrefix)+4 {
		return symbol.NullID, fmt.Errorf("malformed key %q", key)
	}
	return symbol.ID(binary.BigEndian.Uint32(key[len(keyPrefix):])), nil
}

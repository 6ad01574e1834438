// Package redisstore persists symbol registries in a Redis hash.
//
// Every symbol is one field of a single hash: field = decimal id,
// value = name. Durability is whatever the Redis server is configured for
// (AOF with appendfsync always gives the strongest guarantee).
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/symreg/internal/symbol"
)

// DefaultKey is the hash used when Config.Key is empty.
const DefaultKey = "symreg:symbols"

var _ symbol.Backend = (*Store)(nil)

// hashClient is the slice of Redis the store needs.
type hashClient interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// Apply removes del and then sets set, atomically.
	Apply(ctx context.Context, key string, set map[string]string, del []string) error
	Close() error
}

// Config describes how to reach Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Store implements symbol.Backend on a Redis hash.
type Store struct {
	client hashClient
	key    string
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return newStore(&goRedisClient{rdb: rdb}, cfg.Key), nil
}

func newStore(client hashClient, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Key returns the hash holding the symbols.
func (s *Store) Key() string {
	return s.key
}

// Load calls fn for every stored symbol in ascending id order.
func (s *Store) Load(ctx context.Context, fn func(symbol.Symbol) error) error {
	if s.client == nil {
		return errors.New("load symbols: store is closed")
	}
	fields, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}

	syms := make([]symbol.Symbol, 0, len(fields))
	for field, name := range fields {
		id, err := strconv.ParseUint(field, 10, 32)
		if err != nil || id == 0 {
			return fmt.Errorf("load symbols: malformed id field %q", field)
		}
		syms = append(syms, symbol.Symbol{ID: symbol.ID(id), Name: name})
	}
	slices.SortFunc(syms, func(a, b symbol.Symbol) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	for _, sym := range syms {
		if err := fn(sym); err != nil {
			return err
		}
	}
	return nil
}

// Commit collapses changes to the final state per id and applies the result
// in one MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, changes []symbol.Change) error {
	if s.client == nil {
		return errors.New("commit symbols: store is closed")
	}
	if len(changes) == 0 {
		return nil
	}

	last := make(map[symbol.ID]symbol.Change, len(changes))
	for _, c := range changes {
		last[c.ID] = c
	}

	set := make(map[string]string)
	var del []string
	for id, c := range last {
		field := strconv.FormatUint(uint64(id), 10)
		if c.Removed() {
			del = append(del, field)
			continue
		}
		set[field] = c.Name
	}
	slices.Sort(del)

	if err := s.client.Apply(ctx, s.key, set, del); err != nil {
		return fmt.Errorf("commit symbols: %w", err)
	}
	return nil
}

// Close closes the Redis connection. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// goRedisClient adapts *redis.Client to hashClient.
type goRedisClient struct {
	rdb *redis.Client
}

func (c *goRedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, key).Result()
}

func (c *goRedisClient) Apply(ctx context.Context, key string, set map[string]string, del []string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(del) > 0 {
			pipe.HDel(ctx, key, del...)
		}
		if len(set) > 0 {
			values := make(map[string]interface{}, len(set))
			for field, name := range set {
				values[field] = name
			}
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	return err
}

func (c *goRedisClient) Close() error {
	return c.rdb.Close()
}

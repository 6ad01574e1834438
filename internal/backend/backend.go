// Package backend opens the symbol.Backend named by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/symreg/internal/badgerstore"
	"github.com/roach88/symreg/internal/config"
	"github.com/roach88/symreg/internal/redisstore"
	"github.com/roach88/symreg/internal/store"
	"github.com/roach88/symreg/internal/symbol"
)

// Open returns the backend for cfg. A memory configuration returns nil:
// the registry is then ephemeral and needs no backend.
func Open(ctx context.Context, cfg config.Storage, logger *zap.Logger) (symbol.Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Kind {
	case "", config.KindMemory:
		return nil, nil
	case config.KindSQLite:
		var opts []store.Option
		if cfg.Driver != "" {
			opts = append(opts, store.WithDriver(cfg.Driver))
		}
		st, err := store.Open(cfg.Path, opts...)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite symbol store opened", zap.String("path", cfg.Path), zap.String("driver", st.Driver()))
		return st, nil
	case config.KindBadger:
		return badgerstore.Open(cfg.Path, badgerstore.WithLogger(logger))
	case config.KindRedis:
		rs, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("redis symbol store opened", zap.String("addr", cfg.RedisAddr), zap.String("key", rs.Key()))
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

// OpenRegistry opens the configured backend and a registry on top of it.
func OpenRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...symbol.Option) (*symbol.Registry, error) {
	if form, ok := cfg.NormalForm(); ok {
		opts = append(opts, symbol.WithNormalization(form))
	}
	opts = append(opts, symbol.WithLogger(logger))

	b, err := Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Storage.Kind, err)
	}
	if b == nil {
		return symbol.New(opts...), nil
	}

	r, err := symbol.Open(ctx, b, opts...)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return r, nil
}

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/symreg/internal/badgerstore"
	"github.com/roach88/symreg/internal/config"
	"github.com/roach88/symreg/internal/store"
	"github.com/roach88/symreg/internal/testutil"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), config.Storage{Kind: config.KindMemory}, nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.db")
	b, err := Open(context.Background(), config.Storage{Kind: config.KindSQLite, Path: path, Driver: store.DriverPureGo}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()

	st, ok := b.(*store.Store)
	require.True(t, ok)
	assert.Equal(t, store.DriverPureGo, st.Driver())
	assert.Equal(t, path, st.Path())
}

func TestOpen_Badger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	b, err := Open(context.Background(), config.Storage{Kind: config.KindBadger, Path: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()

	bs, ok := b.(*badgerstore.Store)
	require.True(t, ok)
	assert.Equal(t, dir, bs.Dir())
}

func TestOpen_RedisUnreachable(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Kind: config.KindRedis, RedisAddr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Kind: "etcd"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage kind")
}

func TestOpenRegistry_Ephemeral(t *testing.T) {
	r, err := OpenRegistry(context.Background(), config.Default(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Durable())
}

func TestOpenRegistry_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage = config.Storage{Kind: config.KindSQLite, Path: filepath.Join(t.TempDir(), "symbols.db")}
	cfg.Normalize = "NFC"

	r, err := OpenRegistry(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, r.Durable())

	composed, err := r.SymbolID("caf\u00e9")
	require.NoError(t, err)
	testutil.InternAll(t, r, "main", "init")
	require.NoError(t, r.Flush(ctx))

	reopened, err := OpenRegistry(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	testutil.RequireSameMapping(t, r, reopened)
	decomposed, err := reopened.SymbolID("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
	require.NoError(t, r.Close())
}

func TestOpenRegistry_BackendError(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.Storage{Kind: config.KindSQLite, Path: filepath.Join(t.TempDir(), "missing", "dir", "symbols.db")}

	_, err := OpenRegistry(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open sqlite backend")
}

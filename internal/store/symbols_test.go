package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symreg/internal/symbol"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadAll(t *testing.T, s *Store) []symbol.Symbol {
	t.Helper()
	var out []symbol.Symbol
	require.NoError(t, s.Load(context.Background(), func(sym symbol.Symbol) error {
		out = append(out, sym)
		return nil
	}))
	return out
}

func TestCommit_UpsertAndLoadOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, []symbol.Change{
		{ID: 30, Name: "c"},
		{ID: 10, Name: "a"},
		{ID: 20, Name: "b"},
	}))

	assert.Equal(t, []symbol.Symbol{{ID: 10, Name: "a"}, {ID: 20, Name: "b"}, {ID: 30, Name: "c"}}, loadAll(t, s))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCommit_AppliesInOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, []symbol.Change{{ID: 7, Name: "x"}}))

	// Move "x" from 7 to 8, then reuse 7 for "y".
	require.NoError(t, s.Commit(ctx, []symbol.Change{
		{ID: 7},
		{ID: 8, Name: "x"},
		{ID: 7, Name: "y"},
	}))

	assert.Equal(t, []symbol.Symbol{{ID: 7, Name: "y"}, {ID: 8, Name: "x"}}, loadAll(t, s))
}

func TestCommit_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, []symbol.Change{{ID: 1, Name: "a"}}))

	err := s.Commit(ctx, []symbol.Change{
		{ID: 2, Name: "b"},
		{ID: 3, Name: "a"}, // violates the unique name index
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit symbols")

	assert.Equal(t, []symbol.Symbol{{ID: 1, Name: "a"}}, loadAll(t, s), "the whole batch must roll back")
}

func TestCommit_Empty(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.Commit(context.Background(), nil))
}

func TestCommit_Closed(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	assert.Error(t, s.Commit(context.Background(), []symbol.Change{{ID: 1, Name: "a"}}))
	assert.Error(t, s.Load(context.Background(), func(symbol.Symbol) error { return nil }))
	_, err := s.Count(context.Background())
	assert.Error(t, err)
}

func TestLoad_StopsOnCallbackError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Commit(ctx, []symbol.Change{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))

	calls := 0
	err := s.Load(ctx, func(symbol.Symbol) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestRegistry_DurableRoundTrip(t *testing.T) {
	for _, driver := range []string{DriverCgo, DriverPureGo} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "symbols.db")

			st, err := Open(path, WithDriver(driver))
			require.NoError(t, err)
			r, err := symbol.Open(ctx, st)
			require.NoError(t, err)

			want := make(map[string]symbol.ID)
			for _, n := range []string{"A", "B", "C"} {
				id, err := r.SymbolID(n)
				require.NoError(t, err)
				want[n] = id
			}
			require.NoError(t, r.Put(100, "imported"))
			highWater := r.HighWater()

			require.NoError(t, r.Flush(ctx))
			require.NoError(t, r.Close())

			st, err = Open(path, WithDriver(driver))
			require.NoError(t, err)
			reopened, err := symbol.Open(ctx, st)
			require.NoError(t, err)
			defer reopened.Close()

			for n, id := range want {
				got, err := reopened.SymbolID(n)
				require.NoError(t, err)
				assert.Equal(t, id, got)
			}
			assert.Equal(t, symbol.ID(100), highWater)
			assert.Equal(t, highWater, reopened.HighWater())

			fresh, err := reopened.SymbolID("D")
			require.NoError(t, err)
			assert.Greater(t, fresh, highWater)
		})
	}
}

func TestRegistry_PutMovesPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "symbols.db")

	st, err := Open(path)
	require.NoError(t, err)
	r, err := symbol.Open(ctx, st)
	require.NoError(t, err)

	require.NoError(t, r.Put(3, "moving"))
	require.NoError(t, r.Flush(ctx))
	require.NoError(t, r.Put(9, "moving"))
	require.NoError(t, r.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, []symbol.Symbol{{ID: 9, Name: "moving"}}, loadAll(t, st))
}

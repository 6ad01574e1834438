// Package testutil holds helpers shared by tests that drive a symbol registry
// through a real backend.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/symreg/internal/symbol"
)

// InternAll interns names in order and returns the id of each.
func InternAll(t *testing.T, r *symbol.Registry, names ...string) map[string]symbol.ID {
	t.Helper()
	ids := make(map[string]symbol.ID, len(names))
	for _, name := range names {
		id, err := r.SymbolID(name)
		require.NoError(t, err, "intern %q", name)
		ids[name] = id
	}
	return ids
}

// Snapshot returns every bound symbol of r in ascending id order.
func Snapshot(t *testing.T, r *symbol.Registry) []symbol.Symbol {
	t.Helper()
	var out []symbol.Symbol
	require.NoError(t, r.Ascend(symbol.NullID, func(s symbol.Symbol) bool {
		out = append(out, s)
		return true
	}))
	return out
}

// RequireSameMapping fails unless want and got hold identical symbols.
func RequireSameMapping(t *testing.T, want, got *symbol.Registry) {
	t.Helper()
	require.Equal(t, Snapshot(t, want), Snapshot(t, got))
}

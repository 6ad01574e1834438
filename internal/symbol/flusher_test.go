package symbol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunFlusher_CommitsPeriodically(t *testing.T) {
	backend := NewMemoryBackend()
	r, err := Open(t.Context(), backend)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- RunFlusher(ctx, r, 5*time.Millisecond, nil) }()

	_, err = r.SymbolID("periodic")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return backend.Len() == 1 }, time.Second, 5*time.Millisecond)

	// Idle ticks find an empty journal and skip the backend.
	commits := backend.Commits()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, commits, backend.Commits())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("flusher did not stop after cancel")
	}
}

func TestRunFlusher_StopsWhenClosed(t *testing.T) {
	r, err := Open(t.Context(), NewMemoryBackend())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	done := make(chan error, 1)
	go func() { done <- RunFlusher(t.Context(), r, time.Millisecond, nil) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("flusher did not notice the closed registry")
	}
}

func TestRunFlusher_LogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := &faultyBackend{MemoryBackend: NewMemoryBackend()}
	r, err := Open(t.Context(), backend)
	require.NoError(t, err)

	backend.failCommits(errors.New("read-only filesystem"))
	_, err = r.SymbolID("stuck")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = RunFlusher(ctx, r, 2*time.Millisecond, zap.New(core)) }()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("periodic symbol flush failed").Len() > 0
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, 1, r.Pending())

	backend.failCommits(nil)
	assert.Eventually(t, func() bool { return r.Pending() == 0 }, time.Second, 2*time.Millisecond)
}

func TestRunFlusher_InvalidInterval(t *testing.T) {
	err := RunFlusher(t.Context(), New(), 0, nil)
	assert.Error(t, err)
}

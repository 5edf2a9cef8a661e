package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	b, err := NewDirBackend(dir)
	require.NoError(t, err)

	changed := make(chan struct{}, 8)
	w, err := NewWatcher(dir, 20*time.Millisecond, func(ctx context.Context) error {
		changed <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// A burst of saves is coalesced.
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Save(ctx, "color", []string{"red"}))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherKeepsRunningAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	b, err := NewDirBackend(dir)
	require.NoError(t, err)

	calls := make(chan struct{}, 8)
	w, err := NewWatcher(dir, 10*time.Millisecond, func(ctx context.Context) error {
		calls <- struct{}{}
		return errors.New("reload failed")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for _, key := range []string{"a", "b"} {
		require.NoError(t, b.Save(ctx, key, []string{"x"}))
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("no change reported for %s", key)
		}
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNewWatcherErrors(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), 0, nil)
	assert.Error(t, err)

	_, err = NewWatcher("/definitely/not/a/dir", 0, func(context.Context) error { return nil })
	assert.Error(t, err)
}

package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/CTAG07/Anthology/pkg/store"
)

// ErrPersistence wraps every failure reported by the backend.
var ErrPersistence = errors.New("library: persistence failed")

// ErrIndexOutOfRange is returned by Remove for an index with no snippet.
var ErrIndexOutOfRange = errors.New("library: index out of range")

// ErrUnsupportedSchema is returned by CheckSchema for a value type the
// Library cannot store.
var ErrUnsupportedSchema = errors.New("library: unsupported schema")

// CheckSchema reports whether schema can back a Library. Snippets are text,
// so only string values or untyped values are accepted.
func CheckSchema(schema store.Schema) error {
	switch schema.Type {
	case store.Any, store.String:
		return nil
	}
	return fmt.Errorf("%w: value type %q, want string", ErrUnsupportedSchema, schema.Type)
}

// Backend is the storage a Library confirms mutations with.
type Backend interface {
	Load(ctx context.Context) (map[string][]string, error)
	Save(ctx context.Context, key string, values []string) error
	Close() error
}

// Entry summarizes one key for listings.
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Library is a Store kept in step with a Backend. All methods are
// concurrent-safe; writers are serialized.
type Library struct {
	mu      sync.RWMutex
	schema  store.Schema
	store   *store.Store
	backend Backend
	logger  *slog.Logger
}

// New creates an empty Library. Call Load to fill it from the backend.
// A nil logger discards all logs. The schema should pass CheckSchema; with
// any other value type every non-empty write fails validation.
func New(schema store.Schema, backend Backend, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Library{
		schema:  schema,
		store:   store.New(schema),
		backend: backend,
		logger:  logger,
	}
}

// Load merges the backend snapshot into the current content.
func (l *Library) Load(ctx context.Context) error {
	snap, err := l.fetch(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err = l.store.Import(snap); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}
	l.logger.InfoContext(ctx, "Library loaded", "keys", len(snap))
	return nil
}

// Reload replaces the current content with the backend snapshot. On error
// the current content is kept.
func (l *Library) Reload(ctx context.Context) error {
	snap, err := l.fetch(ctx)
	if err != nil {
		return err
	}

	fresh := store.New(l.schema)
	if err = fresh.Import(snap); err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}

	l.mu.Lock()
	l.store = fresh
	l.mu.Unlock()
	l.logger.InfoContext(ctx, "Library reloaded", "keys", len(snap))
	return nil
}

func (l *Library) fetch(ctx context.Context) (map[string][]store.Value, error) {
	raw, err := l.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	snap := make(map[string][]store.Value, len(raw))
	for k, v := range raw {
		snap[k] = store.Values(v)
	}
	return snap, nil
}

// Add appends one snippet to key, creating the key if needed.
func (l *Library) Add(ctx context.Context, key, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(store.Strings(l.store.Read(key)), text)
	return l.commit(ctx, key, next)
}

// Remove drops the snippet at index from key. Removing the last snippet
// deletes the key.
func (l *Library) Remove(ctx context.Context, key string, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := store.Strings(l.store.Read(key))
	if index < 0 || index >= len(current) {
		return fmt.Errorf("%w: %q has %d snippets, got index %d", ErrIndexOutOfRange, key, len(current), index)
	}
	next := append(current[:index:index], current[index+1:]...)
	return l.commit(ctx, key, next)
}

// Set replaces all snippets of key. An empty values slice deletes the key.
func (l *Library) Set(ctx context.Context, key string, values []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(ctx, key, values)
}

// Delete removes key and all its snippets.
func (l *Library) Delete(ctx context.Context, key string) error {
	return l.Set(ctx, key, nil)
}

// Import merges snap into the library, appending to existing keys. The
// merged content is validated as a whole before anything is saved. Keys are
// then saved in ascending order and the first persistence failure stops the
// import, keeping the keys saved before it.
func (l *Library) Import(ctx context.Context, snap map[string][]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	scratch := store.New(l.schema)
	if err := scratch.Import(l.store.Export()); err != nil {
		return err
	}
	incoming := make(map[string][]store.Value, len(snap))
	keys := make([]string, 0, len(snap))
	for k, v := range snap {
		if len(v) == 0 {
			continue
		}
		incoming[k] = store.Values(v)
		keys = append(keys, k)
	}
	if err := scratch.Import(incoming); err != nil {
		return err
	}

	sort.Strings(keys)
	for _, k := range keys {
		if err := l.commit(ctx, k, store.Strings(scratch.Read(k))); err != nil {
			return err
		}
	}
	l.logger.InfoContext(ctx, "Snapshot imported", "keys", len(keys))
	return nil
}

// commit validates, saves, then applies. Must be called with l.mu held.
func (l *Library) commit(ctx context.Context, key string, values []string) error {
	if len(values) == 0 {
		if key == "" {
			return store.ErrInvalidKey
		}
	} else if err := l.store.Validate(key, store.Values(values)); err != nil {
		return err
	}

	if err := l.backend.Save(ctx, key, values); err != nil {
		l.logger.ErrorContext(ctx, "Failed to save snippets", "key", key, "error", err)
		return fmt.Errorf("%w: save %q: %w", ErrPersistence, key, err)
	}

	if len(values) == 0 {
		l.store.Delete(key)
		l.logger.DebugContext(ctx, "Key deleted", "key", key)
		return nil
	}
	if err := l.store.Update(key, store.Values(values)); err != nil {
		// Validate accepted these values under the same lock.
		return err
	}
	l.logger.DebugContext(ctx, "Key saved", "key", key, "count", len(values))
	return nil
}

// Keys returns every key in ascending order.
func (l *Library) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Keys()
}

// Read returns a copy of the values of key, empty when absent.
func (l *Library) Read(key string) []store.Value {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.Read(key)
}

// Snippets returns the values of key as text.
func (l *Library) Snippets(key string) []string {
	return store.Strings(l.Read(key))
}

// Snapshot returns a copy of the whole content as text lists.
func (l *Library) Snapshot() map[string][]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	exported := l.store.Export()
	out := make(map[string][]string, len(exported))
	for k, v := range exported {
		out[k] = store.Strings(v)
	}
	return out
}

// Entries lists every key with its snippet count in natural order (see
// SortNatural).
func (l *Library) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := l.store.Keys()
	SortNatural(keys)
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Count: l.store.Length(k)}
	}
	return out
}

// Template returns a single alternation group listing every key in natural
// order. Expanding it yields a random value of a random key.
func (l *Library) Template() string {
	l.mu.RLock()
	keys := l.store.Keys()
	l.mu.RUnlock()
	SortNatural(keys)
	return groupOf(keys)
}

// Size returns the approximate size of the content in bytes.
func (l *Library) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ApproximateSize()
}

// Close closes the backend.
func (l *Library) Close() error {
	return l.backend.Close()
}

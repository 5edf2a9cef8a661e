package persist

import (
	"context"
	"sync"
)

// MemoryBackend keeps snippets in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]string
}

// NewMemoryBackend returns a MemoryBackend seeded with a copy of initial.
func NewMemoryBackend(initial map[string][]string) *MemoryBackend {
	m := &MemoryBackend{data: make(map[string][]string, len(initial))}
	for k, v := range initial {
		if len(v) > 0 {
			m.data[k] = cloneStrings(v)
		}
	}
	return m
}

func (m *MemoryBackend) Load(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]string, len(m.data))
	for k, v := range m.data {
		out[k] = cloneStrings(v)
	}
	return out, nil
}

func (m *MemoryBackend) Save(ctx context.Context, key string, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(values) == 0 {
		delete(m.data, key)
		return nil
	}
	m.data[key] = cloneStrings(values)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

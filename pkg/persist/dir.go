package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

const snippetExt = ".json"

// DirBackend stores each key as a JSON array in its own file.
//
// Layout:
//
//	data_dir/
//	  color.json    # ["red", "blue"]
//	  animal.json   # ["cat", "dog"]
type DirBackend struct {
	mu  sync.RWMutex
	dir string
}

// NewDirBackend returns a DirBackend rooted at dir, creating it if needed.
func NewDirBackend(dir string) (*DirBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("persist: dir backend requires a data directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &DirBackend{dir: dir}, nil
}

// Dir returns the directory the backend reads and writes.
func (d *DirBackend) Dir() string { return d.dir }

// keyPath maps key to its file, rejecting keys that are not a plain file name.
func (d *DirBackend) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) ||
		filepath.Base(key) != key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(d.dir, key+snippetExt), nil
}

func (d *DirBackend) Load(ctx context.Context) (map[string][]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, err
	}

	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snippetExt) || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		var values []any
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		out[strings.TrimSuffix(name, snippetExt)] = textValues(values)
	}
	return out, nil
}

func (d *DirBackend) Save(ctx context.Context, key string, values []string) error {
	path, err := d.keyPath(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(values) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func (d *DirBackend) Close() error { return nil }

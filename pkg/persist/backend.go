package persist

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/CTAG07/Anthology/pkg/store"
)

// Backend is the persistence contract shared by every storage kind.
type Backend interface {
	// Load returns every stored key with its values in order.
	Load(ctx context.Context) (map[string][]string, error)
	// Save replaces all values of key. An empty values slice removes the key.
	Save(ctx context.Context, key string, values []string) error
	// Close releases resources held by the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	KindDir    = "dir"
	KindSQLite = "sqlite"
	KindMemory = "memory"
	KindRemote = "remote"
)

// Options carries what Open needs for the selected backend kind.
type Options struct {
	// DataDir is the snippet directory of the dir backend.
	DataDir string
	// DB is an open SQLite handle for the sqlite backend. The caller keeps
	// ownership and closes it.
	DB *sql.DB
	// RemoteURL is the /api/db endpoint of a remote server.
	RemoteURL string
	// Client is used by the remote backend. http.DefaultClient when nil.
	Client *http.Client
}

// Open creates a Backend by name. An empty name selects the dir backend.
func Open(kind string, opts Options) (Backend, error) {
	switch strings.ToLower(kind) {
	case KindDir, "", "json":
		return NewDirBackend(opts.DataDir)
	case KindSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("persist: sqlite backend requires a database handle")
		}
		return NewSQLiteBackend(opts.DB)
	case KindMemory:
		return NewMemoryBackend(nil), nil
	case KindRemote, "http":
		return NewHTTPBackend(opts.RemoteURL, opts.Client)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s, %s, %s)", ErrUnknownBackend, kind, KindDir, KindSQLite, KindMemory, KindRemote)
	}
}

// textValues renders decoded JSON values as snippet strings so hand-edited
// files holding numbers or booleans still load.
func textValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = store.Text(v)
	}
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

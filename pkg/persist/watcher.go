package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits for a burst of file events to
// settle before reporting a change.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports edits made to the snippet files of a directory. Rapid
// events are coalesced into a single call of the change handler.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ctx context.Context) error
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching dir. onChange is called from Run after each
// settled burst of events on *.json files.
func NewWatcher(dir string, debounce time.Duration, onChange func(ctx context.Context) error) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("persist: watcher requires a change handler")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		fsw:      fsw,
	}, nil
}

// SetLogger sets the logger. By default, all logs are discarded.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Run processes events until ctx is cancelled, then closes the underlying
// watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.fsw.Close()
	}()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.logger.Info("Watching snippet directory", "dir", w.dir)
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Watcher stopped", "dir", w.dir)
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Snippet file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("Failed to apply snippet changes", "error", err)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, snippetExt) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

package templating

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/CTAG07/Anthology/pkg/store"
)

// Engine is the central controller for template evaluation. It holds the
// safety limits, the random source and the Source consulted for key
// references. All methods are concurrent-safe.
type Engine struct {
	logger *slog.Logger
	config TemplateConfig
	src    Source
	rng    *rand.Rand
	mu     sync.Mutex
}

// NewEngine creates an Engine that resolves key references against src.
// A nil src behaves like an empty store. Zero limits in config fall back to
// DefaultConfig.
func NewEngine(src Source, config TemplateConfig) *Engine {
	return &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		config: config.normalized(),
		src:    src,
	}
}

// SetLogger sets the logger. By default, all logs are discarded.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// SetRand makes the Engine draw from r instead of the global generator,
// which makes results reproducible for a seeded source.
func (e *Engine) SetRand(r *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = r
}

// SetConfig applies new safety limits.
func (e *Engine) SetConfig(config TemplateConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config.normalized()
}

// GetConfig returns a copy of the current limits.
func (e *Engine) GetConfig() TemplateConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

func (e *Engine) intn(n int) int {
	if e.rng != nil {
		return e.rng.IntN(n)
	}
	return rand.IntN(n)
}

// newResolver must be called with e.mu held.
func (e *Engine) newResolver(keys []string) *resolver {
	src := e.src
	if src == nil {
		src = emptySource{}
	}
	if keys == nil {
		keys = src.Keys()
	}
	candidates := candidateKeys(keys)
	known := make(map[string]bool, len(candidates))
	for _, k := range candidates {
		known[k] = true
	}
	return &resolver{
		src:    src,
		keys:   candidates,
		known:  known,
		config: e.config,
		intn:   e.intn,
	}
}

// Expand resolves text once, choosing randomly at every alternation group and
// key reference. Every key of the Source is a reference candidate, and a
// chosen option that names a key stands for a random value of that key.
func (e *Engine) Expand(text string) (string, error) {
	return e.ExpandKeys(text, nil)
}

// ExpandKeys is Expand with the reference candidates restricted to keys.
// A nil keys slice means every key of the Source.
func (e *Engine) ExpandKeys(text string, keys []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.newResolver(keys).expand(text, 0)
	if err != nil {
		e.logger.Warn("Template expansion failed", "error", err)
		return "", err
	}
	return out, nil
}

// ExpandN returns n independent expansions of text.
func (e *Engine) ExpandN(text string, n int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.newResolver(nil)
	out := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		s, err := r.expand(text, 0)
		if err != nil {
			e.logger.Warn("Template expansion failed", "iteration", i, "error", err)
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Count returns how many results Spread would produce for text.
func (e *Engine) Count(text string) int {
	return Combinations(Split(text))
}

// Spread enumerates every combination of the top-level alternation groups of
// text. Key references are left untouched.
func (e *Engine) Spread(text string) ([]string, error) {
	segments := Split(text)
	total := Combinations(segments)

	e.mu.Lock()
	limit := e.config.MaxCombinations
	logger := e.logger
	e.mu.Unlock()

	if total > limit {
		logger.Warn("Refusing to spread template", "combinations", total, "limit", limit)
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyCombinations, total, limit)
	}
	logger.Debug("Spreading template", "segments", len(segments), "combinations", total)
	return Enumerate(segments), nil
}

type emptySource struct{}

func (emptySource) Keys() []string { return nil }
func (emptySource) Read(string) []store.Value { return nil }

package templating

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineCount(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	assert.Equal(t, 4, e.Count("{a|b}{1|2}"))
	assert.Equal(t, 1, e.Count("plain"))
	assert.Equal(t, 3, e.Count("x{a|{b|c}|d}y"))
}

func TestEngineSpread(t *testing.T) {
	e := NewEngine(setupTestStore(t, map[string][]string{"k": {"v"}}), DefaultConfig())

	out, err := e.Spread("$k {a|b}")
	require.NoError(t, err)
	assert.Equal(t, []string{"$k a", "$k b"}, out)
}

func TestEngineSpreadLimit(t *testing.T) {
	e := NewEngine(nil, TemplateConfig{MaxCombinations: 8})

	var logs bytes.Buffer
	e.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	out, err := e.Spread("{a|b}{a|b}{a|b}")
	require.NoError(t, err)
	assert.Len(t, out, 8)

	_, err = e.Spread("{a|b}{a|b}{a|b}{a|b}")
	assert.ErrorIs(t, err, ErrTooManyCombinations)
	assert.Contains(t, logs.String(), "Refusing to spread template")
}

func TestEngineExpandN(t *testing.T) {
	e := setupTestEngine(t, map[string][]string{"x": {"1", "2"}})

	out, err := e.ExpandN("$x{a|b}", 25)
	require.NoError(t, err)
	require.Len(t, out, 25)
	for _, s := range out {
		assert.Contains(t, []string{"1a", "1b", "2a", "2b"}, s)
	}

	out, err = e.ExpandN("x", 0)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = e.ExpandN(strings.Repeat("{", 64)+strings.Repeat("}", 64), 3)
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestEngineSetConfig(t *testing.T) {
	e := NewEngine(nil, DefaultConfig())
	e.SetConfig(TemplateConfig{MaxPasses: 2})

	got := e.GetConfig()
	assert.Equal(t, 2, got.MaxPasses)
	assert.Equal(t, DefaultConfig().MaxDepth, got.MaxDepth)

	_, err := e.Expand("{a}{b}{c}")
	assert.ErrorIs(t, err, ErrMalformedTemplate)
}

func TestEngineConcurrentUse(t *testing.T) {
	e := setupTestEngine(t, map[string][]string{"w": {"x", "y"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				out, err := e.Expand("{a|b}$w")
				assert.NoError(t, err)
				assert.Len(t, out, 2)
			}
		}()
	}
	wg.Wait()
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/templating"
)

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "config.json", `{"server_config": {"api_addr": ":9999"}, "template_config": {"max_depth": 8}}`},
		{"yaml", "config.yaml", "server_config:\n  api_addr: \":9999\"\ntemplate_config:\n  max_depth: 8\n"},
		{"toml", "config.toml", "[server_config]\napi_addr = \":9999\"\n\n[template_config]\nmax_depth = 8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, ":9999", cfg.Server.ApiAddr)
			assert.Equal(t, 8, cfg.Templates.MaxDepth)
			// Missing sections fall back to their defaults.
			assert.Equal(t, DefaultLibraryConfig(), cfg.Library)
		})
	}
}

func TestDefaultConfigRoundTripsInEveryFormat(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		data, err := encodeConfig(format, DefaultConfig())
		require.NoError(t, err, format)

		decoded := &Config{}
		require.NoError(t, decodeConfig(format, data, decoded), format)
		assert.Equal(t, DefaultConfig(), decoded, format)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	level := filepath.Join(dir, "level.json")
	require.NoError(t, os.WriteFile(level, []byte(`{"server_config": {"log_level": "loud"}}`), 0o644))
	_, err = LoadConfig(level)
	assert.Error(t, err)

	backend := filepath.Join(dir, "backend.json")
	require.NoError(t, os.WriteFile(backend, []byte(`{"library_config": {"backend": "tape"}}`), 0o644))
	_, err = LoadConfig(backend)
	assert.Error(t, err)

	vt := filepath.Join(dir, "vt.json")
	require.NoError(t, os.WriteFile(vt, []byte(`{"library_config": {"value_type": "widget"}}`), 0o644))
	_, err = LoadConfig(vt)
	assert.Error(t, err)

	for _, name := range []string{"number", "boolean", "object", "array"} {
		typed := filepath.Join(dir, name+".json")
		body := `{"library_config": {"value_type": "` + name + `"}}`
		require.NoError(t, os.WriteFile(typed, []byte(body), 0o644))
		_, err = LoadConfig(typed)
		assert.ErrorIs(t, err, library.ErrUnsupportedSchema, name)
	}

	for _, name := range []string{"", "any", "string"} {
		typed := filepath.Join(dir, "ok-"+name+".json")
		body := `{"library_config": {"value_type": "` + name + `"}}`
		require.NoError(t, os.WriteFile(typed, []byte(body), 0o644))
		_, err = LoadConfig(typed)
		assert.NoError(t, err, name)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ANTHOLOGY_ADDR", ":1234")
	t.Setenv("ANTHOLOGY_BACKEND", "memory")
	t.Setenv("ANTHOLOGY_DATA_DIR", "/srv/snippets")
	t.Setenv("ANTHOLOGY_LOG_LEVEL", "debug")
	t.Setenv("ANTHOLOGY_WATCH", "false")

	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.ApiAddr)
	assert.Equal(t, "memory", cfg.Library.Backend)
	assert.Equal(t, "/srv/snippets", cfg.Library.DataDir)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.False(t, cfg.Library.Watch)

	// Overrides are not written to the default file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), ":1234")
}

func TestConfigManagerUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)

	engine := templating.NewEngine(nil, templating.DefaultConfig())
	cm.SetEngine(engine)

	cfg := cm.Get()
	cfg.Templates.MaxCombinations = 3
	cfg.Server.ApiAddr = ":8081"
	require.NoError(t, cm.Update(cfg))

	assert.Equal(t, 3, engine.GetConfig().MaxCombinations)
	_, err = engine.Spread("{a|b}{c|d}")
	assert.ErrorIs(t, err, templating.ErrTooManyCombinations)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8081", reloaded.Server.ApiAddr)
	assert.Equal(t, 3, reloaded.Templates.MaxCombinations)

	cfg.Server.LogLevel = "shouting"
	assert.Error(t, cm.Update(cfg))
	assert.Equal(t, "info", cm.Get().Server.LogLevel)
}

func TestConfigGetIsCopy(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := cm.Get()
	cfg.Server.ApiAddr = "changed"
	cfg.Templates.MaxDepth = 1
	assert.Equal(t, DefaultServerConfig().ApiAddr, cm.Get().Server.ApiAddr)
	assert.Equal(t, templating.DefaultConfig().MaxDepth, cm.Get().Templates.MaxDepth)
}

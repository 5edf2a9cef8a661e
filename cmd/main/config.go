package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/persist"
	"github.com/CTAG07/Anthology/pkg/store"
	"github.com/CTAG07/Anthology/pkg/templating"
)

const defaultConfigPath = "./config.json"

// ServerConfig holds the configuration for the HTTP API server.
type ServerConfig struct {
	ApiAddr            string `json:"api_addr" yaml:"api_addr" toml:"api_addr"`
	LogLevel           string `json:"log_level" yaml:"log_level" toml:"log_level"`
	ApiToken           string `json:"api_token" yaml:"api_token" toml:"api_token"`
	ShutdownTimeoutSec int    `json:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec"`
	MaxExpandCount     int    `json:"max_expand_count" yaml:"max_expand_count" toml:"max_expand_count"`
}

// LibraryConfig selects where snippets are persisted and how they are validated.
type LibraryConfig struct {
	Backend         string `json:"backend" yaml:"backend" toml:"backend"`
	DataDir         string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	DatabasePath    string `json:"database_path" yaml:"database_path" toml:"database_path"`
	RemoteURL       string `json:"remote_url" yaml:"remote_url" toml:"remote_url"`
	RemoteTimeoutMs int    `json:"remote_timeout_ms" yaml:"remote_timeout_ms" toml:"remote_timeout_ms"`
	Watch           bool   `json:"watch" yaml:"watch" toml:"watch"`
	WatchDebounceMs int    `json:"watch_debounce_ms" yaml:"watch_debounce_ms" toml:"watch_debounce_ms"`
	Unique          bool   `json:"unique" yaml:"unique" toml:"unique"`
	ValueType       string `json:"value_type" yaml:"value_type" toml:"value_type"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config" yaml:"server_config" toml:"server_config"`
	Library   *LibraryConfig             `json:"library_config" yaml:"library_config" toml:"library_config"`
	Templates *templating.TemplateConfig `json:"template_config" yaml:"template_config" toml:"template_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:            ":7280",
		LogLevel:           "info",
		ApiToken:           "",
		ShutdownTimeoutSec: 10,
		MaxExpandCount:     1000,
	}
}

// DefaultLibraryConfig creates a library configuration with default values.
func DefaultLibraryConfig() *LibraryConfig {
	return &LibraryConfig{
		Backend:         persist.KindDir,
		DataDir:         "./data/db",
		DatabasePath:    "./data/anthology.db",
		RemoteURL:       "",
		RemoteTimeoutMs: 10000,
		Watch:           true,
		WatchDebounceMs: 250,
		Unique:          false,
		ValueType:       string(store.String),
	}
}

// DefaultConfig returns a full configuration with default values.
func DefaultConfig() *Config {
	tc := templating.DefaultConfig()
	return &Config{
		Server:    DefaultServerConfig(),
		Library:   DefaultLibraryConfig(),
		Templates: &tc,
	}
}

// clone returns a deep copy so callers cannot modify shared state.
func (c Config) clone() Config {
	out := Config{}
	if c.Server != nil {
		s := *c.Server
		out.Server = &s
	}
	if c.Library != nil {
		l := *c.Library
		out.Library = &l
	}
	if c.Templates != nil {
		t := *c.Templates
		out.Templates = &t
	}
	return out
}

// fillDefaults replaces missing sections with their defaults.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Server == nil {
		c.Server = d.Server
	}
	if c.Library == nil {
		c.Library = d.Library
	}
	if c.Templates == nil {
		c.Templates = d.Templates
	}
}

// validate rejects settings no component could run with.
func (c *Config) validate() error {
	if _, err := parseLogLevel(c.Server.LogLevel); err != nil {
		return err
	}
	valueType, err := store.ParseValueType(c.Library.ValueType)
	if err != nil {
		return fmt.Errorf("invalid library value_type: %w", err)
	}
	if err = library.CheckSchema(store.Schema{Type: valueType}); err != nil {
		return fmt.Errorf("invalid library value_type: %w", err)
	}
	switch strings.ToLower(c.Library.Backend) {
	case persist.KindDir, persist.KindSQLite, persist.KindMemory, persist.KindRemote, "", "json", "http":
	default:
		return fmt.Errorf("%w: %q", persist.ErrUnknownBackend, c.Library.Backend)
	}
	return nil
}

// configFormat names the encoding of path by its extension. JSON is the default.
func configFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func decodeConfig(format string, data []byte, config *Config) error {
	switch format {
	case "yaml":
		return yaml.Unmarshal(data, config)
	case "toml":
		return toml.Unmarshal(data, config)
	default:
		return json.Unmarshal(data, config)
	}
}

func encodeConfig(format string, config *Config) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(config)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return json.MarshalIndent(config, "", "  ")
	}
}

// LoadConfig reads the configuration from the file at the given path. The
// format follows the extension (.json, .yaml/.yml or .toml). If the file
// doesn't exist, it creates one with default values. Environment overrides
// are applied last and never written back.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	format := configFormat(path)

	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var data []byte
		data, err = encodeConfig(format, config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			// The server can still run with defaults.
			fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
		}
	} else if err = decodeConfig(format, file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.fillDefaults()
	applyEnv(config)
	if err = config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// env returns the value of the environment variable key, or fallback.
func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyEnv(c *Config) {
	c.Server.ApiAddr = env("ANTHOLOGY_ADDR", c.Server.ApiAddr)
	c.Server.LogLevel = env("ANTHOLOGY_LOG_LEVEL", c.Server.LogLevel)
	c.Server.ApiToken = env("ANTHOLOGY_API_TOKEN", c.Server.ApiToken)
	c.Library.Backend = env("ANTHOLOGY_BACKEND", c.Library.Backend)
	c.Library.DataDir = env("ANTHOLOGY_DATA_DIR", c.Library.DataDir)
	c.Library.DatabasePath = env("ANTHOLOGY_DATABASE_PATH", c.Library.DatabasePath)
	c.Library.RemoteURL = env("ANTHOLOGY_REMOTE_URL", c.Library.RemoteURL)
	if v, err := strconv.ParseBool(os.Getenv("ANTHOLOGY_WATCH")); err == nil {
		c.Library.Watch = v
	}
}

// ConfigManager handles thread-safe access to the configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	engine     *templating.Engine
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetEngine registers the engine that receives template limit updates.
func (cm *ConfigManager) SetEngine(engine *templating.Engine) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.engine = engine
	if engine != nil {
		engine.SetConfig(*cm.config.Templates)
	}
}

// SetLogger sets the logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.clone()
}

// Update validates the configuration, applies the template limits to the
// engine and saves it to disk. Server and library settings take effect on
// the next restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	newConfig = newConfig.clone()
	newConfig.fillDefaults()
	if err := newConfig.validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := encodeConfig(configFormat(cm.configPath), &newConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(cm.configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	*cm.config = newConfig
	if cm.engine != nil {
		cm.engine.SetConfig(*newConfig.Templates)
	}
	cm.logger.Info("Configuration updated", "path", cm.configPath)
	return nil
}

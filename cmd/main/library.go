package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/persist"
	"github.com/CTAG07/Anthology/pkg/store"
)

// openLibrary opens the configured backend and loads a Library from it. The
// returned cleanup closes the backend and any database handle.
func openLibrary(ctx context.Context, cfg *LibraryConfig, logger *slog.Logger) (*library.Library, persist.Backend, func(), error) {
	valueType, err := store.ParseValueType(cfg.ValueType)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := persist.Options{
		DataDir:   cfg.DataDir,
		RemoteURL: cfg.RemoteURL,
		Client:    &http.Client{Timeout: time.Duration(cfg.RemoteTimeoutMs) * time.Millisecond},
	}

	var db *sql.DB
	if strings.EqualFold(cfg.Backend, persist.KindSQLite) {
		dbFile, _, _ := strings.Cut(cfg.DatabasePath, "?")
		if dir := filepath.Dir(dbFile); dir != "" {
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = initDB(cfg.DatabasePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		opts.DB = db
	}

	backend, err := persist.Open(cfg.Backend, opts)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, nil, fmt.Errorf("failed to open %q backend: %w", cfg.Backend, err)
	}

	lib := library.New(store.Schema{Unique: cfg.Unique, Type: valueType}, backend, logger)
	cleanup := func() {
		if err := lib.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
		if db != nil {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}
	}

	if err = lib.Load(ctx); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to load library: %w", err)
	}
	return lib, backend, cleanup, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CTAG07/Anthology/pkg/persist"
	"github.com/CTAG07/Anthology/pkg/templating"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server until interrupted.

The server restarts in place when POST /api/server/restart is called,
reloading the configuration file and reopening the backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(opts)
		},
	}
}

func serve(opts *rootOptions) error {
	baseLogger := newLogger(os.Stdout, opts.logLevel)

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := run(opts, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}
		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("Anthology has shut down.")
	return nil
}

// run hosts one server cycle and returns whenever the server is shut down or
// restarted.
func run(opts *rootOptions, actionChan chan string) (string, error) {
	cm, err := NewConfigManager(opts.configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	config := cm.Get()

	level := config.Server.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := newLogger(os.Stdout, level)
	cm.SetLogger(logger)
	logger.Info("Starting server cycle...", "version", Version)

	lib, backend, closeLibrary, err := openLibrary(context.Background(), config.Library, logger)
	if err != nil {
		return "", err
	}
	defer closeLibrary()

	engine := templating.NewEngine(lib, *config.Templates)
	engine.SetLogger(logger)
	cm.SetEngine(engine)

	server := NewServer(cm, lib, engine, actionChan, logger)
	apiHttpServer := &http.Server{
		Addr:              config.Server.ApiAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	if dir, ok := backend.(*persist.DirBackend); ok && config.Library.Watch {
		debounce := time.Duration(config.Library.WatchDebounceMs) * time.Millisecond
		watcher, err := persist.NewWatcher(dir.Dir(), debounce, lib.Reload)
		if err != nil {
			logger.Warn("File watching disabled", "error", err)
		} else {
			watcher.SetLogger(logger)
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	var action string
	select {
	case action = <-actionChan: // Block here until API or OS signal sends an action.
	case <-gctx.Done():
		action = actionShutdown
	}

	logger.Info("Stopping server for " + action + "...")
	timeout := time.Duration(config.Server.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if err = apiHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	cancel()
	if err = g.Wait(); err != nil {
		return "", err
	}
	logger.Info("HTTP server stopped.")
	return action, nil
}

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
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/indexer"
	"github.com/hyperjump/jobrecall/internal/server"
	"github.com/hyperjump/jobrecall/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if len(cfg.Watch.Directories) > 0 {
		if components.Indexer == nil {
			logger.Warn("watch directories ignored: indexing needs the sqlite backend")
		} else {
			w := watcher.NewWatcher(cfg.Watch.Directories, cfg.Watch.Extensions,
				indexer.NewFileSync(components.Indexer),
				watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
				watcher.WithDebounce(cfg.Watch.Debounce),
				watcher.WithLogger(logger))
			if err := w.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer w.Stop()
			w.SyncExisting()
		}
	}

	srv := server.NewServer(components.Engine, components.Indexer, components.Backend, components.Vectors, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		return err
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)

	// jobs indexed over the API live only in memory until saved
	if components.Indexer != nil {
		if err := components.SaveVectors(cfg.Vector.IndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Vector.IndexPath), zap.Error(err))
		}
	}
	return nil
}

// Package main is the jobrecall CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/embedding"
	"github.com/hyperjump/jobrecall/internal/indexer"
	"github.com/hyperjump/jobrecall/internal/search"
	"github.com/hyperjump/jobrecall/internal/storage"
	"github.com/hyperjump/jobrecall/internal/vector"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/jobrecall/config.yaml"

var (
	configPath string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:           "jobrecall",
	Short:         "Job recommendation engine",
	Long:          "jobrecall recalls jobs from a knowledge graph and vector store by skills, titles and experience, then ranks them for a candidate.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

func main() {
	// secrets may live in a local .env file
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present; when neither exists the built-in
// defaults are used. Returns the config and the path actually loaded, empty for
// defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyEnv(cfg)
			config.ApplyDefaults(cfg)
			return cfg, "", cfg.Validate()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, loaded, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", loaded),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("vector", cfg.Vector.IndexType))
	return cfg, logger, nil
}

// Components holds initialized services.
type Components struct {
	Backend  storage.Backend
	Embedder embedding.Embedder
	Vectors  vector.Store
	Engine   *search.Engine
	// Indexer is nil unless the backend is the writable SQLite catalogue.
	Indexer *indexer.Indexer
}

// Close releases every component.
func (c *Components) Close() {
	if c.Backend != nil {
		_ = c.Backend.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
}

// SaveVectors persists a memory vector store to path. Other stores are durable already.
func (c *Components) SaveVectors(path string) error {
	mem, ok := c.Vectors.(*vector.MemoryStore)
	if !ok {
		return nil
	}
	return mem.Save(path)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	var err error
	c.Backend, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph backend: %w", err)
	}
	c.Embedder, err = embedding.New(ctx, cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Vectors, err = vector.NewStore(ctx, cfg.Vector)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	logger.Info("components initialized",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("vector", c.Vectors.Type()),
		zap.String("embedding", cfg.Embedding.Provider))

	client := vector.NewClient(c.Vectors, c.Embedder,
		vector.WithMaxConcurrency(cfg.Recall.MaxConcurrency),
		vector.WithLogger(logger))
	c.Engine = search.NewEngine(cfg, client, c.Backend, search.WithLogger(logger))
	if store, ok := c.Backend.(storage.Storage); ok {
		c.Indexer = indexer.NewIndexer(store, c.Embedder, c.Vectors, indexer.WithLogger(logger))
	}
	return c, nil
}

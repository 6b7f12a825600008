// Package embedding provides text embedding via a remote embedding service, with
// in-process and Redis caching.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/config"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder described by cfg, wrapped in the embedding cache.
// A Redis second-level cache is attached when cfg.RedisURL is set and reachable.
func New(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var inner Embedder
	switch cfg.Provider {
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	case "http", "":
		inner = NewHTTPEmbedder(cfg.URL, cfg.Model, cfg.Dimensions,
			WithAPIKey(cfg.APIKey),
			WithTimeout(cfg.Timeout),
			WithMaxRetries(cfg.MaxRetries),
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	opts := []CachedOption{WithCacheLogger(logger)}
	if cfg.RedisURL != "" {
		l2, err := NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("embedding redis cache disabled", zap.Error(err))
		} else {
			opts = append(opts, WithL2(l2))
		}
	}
	return NewCachedEmbedder(inner, cfg.Model, cfg.CacheSize, opts...), nil
}

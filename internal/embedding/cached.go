package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CachedEmbedder wraps an Embedder with an LRU cache and an optional shared L2 cache.
type CachedEmbedder struct {
	inner  Embedder
	model  string
	cache  *EmbeddingCache
	l2     L2Cache
	logger *zap.Logger
}

// CachedOption configures a CachedEmbedder.
type CachedOption func(*CachedEmbedder)

// WithL2 attaches a shared second-level cache.
func WithL2(l2 L2Cache) CachedOption {
	return func(c *CachedEmbedder) { c.l2 = l2 }
}

// WithCacheLogger sets the logger used for L2 failures.
func WithCacheLogger(logger *zap.Logger) CachedOption {
	return func(c *CachedEmbedder) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCachedEmbedder returns inner wrapped with a cache of cacheSize entries.
// model namespaces the L2 keys.
func NewCachedEmbedder(inner Embedder, model string, cacheSize int, opts ...CachedOption) *CachedEmbedder {
	c := &CachedEmbedder{
		inner:  inner,
		model:  model,
		cache:  NewEmbeddingCache(cacheSize),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the embedding for text, using cache when available.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch resolves cached texts locally and sends the remaining ones to the
// wrapped embedder in a single batch.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	missingIdx := make(map[string][]int)

	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			out[i] = v
			continue
		}
		if c.l2 != nil {
			v, ok, err := c.l2.Get(ctx, CacheKey(c.model, text))
			if err != nil {
				c.logger.Debug("embedding l2 get failed", zap.Error(err))
			} else if ok {
				c.cache.Set(text, v)
				out[i] = v
				continue
			}
		}
		if _, queued := missingIdx[text]; !queued {
			missing = append(missing, text)
		}
		missingIdx[text] = append(missingIdx[text], i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, text := range missing {
		c.cache.Set(text, vecs[j])
		if c.l2 != nil {
			if err := c.l2.Set(ctx, CacheKey(c.model, text), vecs[j]); err != nil {
				c.logger.Debug("embedding l2 set failed", zap.Error(err))
			}
		}
		for _, i := range missingIdx[text] {
			out[i] = vecs[j]
		}
	}
	return out, nil
}

// Dimensions returns the embedding dimension of the wrapped embedder.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the wrapped embedder and the L2 cache if it is closable.
func (c *CachedEmbedder) Close() error {
	if closer, ok := c.l2.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	return c.inner.Close()
}

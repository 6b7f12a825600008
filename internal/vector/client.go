package vector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jobrecall/internal/embedding"
)

// Client runs thresholded recall searches against a Store.
type Client struct {
	store          Store
	embedder       embedding.Embedder
	maxConcurrency int
	logger         *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMaxConcurrency caps the number of searches in flight per batch.
func WithMaxConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a recall client over store, embedding query text with embedder.
func NewClient(store Store, embedder embedding.Embedder, opts ...ClientOption) *Client {
	c := &Client{
		store:          store,
		embedder:       embedder,
		maxConcurrency: 16,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns hits in collection closer than threshold. A missing collection
// yields no hits; any other store failure wraps ErrStoreUnavailable.
func (c *Client) Search(ctx context.Context, collection string, query []float32, limit int, threshold float64) ([]*ScoredResult, error) {
	results, err := c.store.Search(ctx, collection, query, limit)
	if errors.Is(err, ErrCollectionNotFound) {
		c.logger.Debug("collection not found", zap.String("collection", collection))
		return nil, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	filtered := make([]*ScoredResult, 0, len(results))
	for _, r := range results {
		if r.Score < threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// SearchTexts embeds texts in one batch and searches collection once per text,
// concurrently up to the client's limit. Hits are flattened in input order.
func (c *Client) SearchTexts(ctx context.Context, collection string, texts []string, limit int, threshold float64) ([]*ScoredResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed queries for %s: %w", collection, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d queries", len(vectors), len(texts))
	}

	perQuery := make([][]*ScoredResult, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrency)
	for i, vec := range vectors {
		g.Go(func() error {
			hits, err := c.Search(gctx, collection, vec, limit, threshold)
			if err != nil {
				return err
			}
			perQuery[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*ScoredResult
	for _, hits := range perQuery {
		out = append(out, hits...)
	}
	c.logger.Debug("vector search",
		zap.String("collection", collection),
		zap.Int("queries", len(texts)),
		zap.Int("hits", len(out)))
	return out, nil
}

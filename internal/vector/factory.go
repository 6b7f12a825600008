package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/jobrecall/internal/config"
)

// IndexType represents the type of vector store to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search, persisted to a single file.
	IndexTypeMemory IndexType = "memory"
	// IndexTypePGVector uses Postgres with the pgvector extension.
	IndexTypePGVector IndexType = "pgvector"
)

// NewStore creates the vector store described by cfg. A memory store is
// populated from cfg.IndexPath when the file exists.
func NewStore(ctx context.Context, cfg config.VectorConfig) (Store, error) {
	switch IndexType(cfg.IndexType) {
	case IndexTypeMemory, "":
		s, err := NewMemoryStore(cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		if err := s.Load(cfg.IndexPath); err != nil {
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		return s, nil
	case IndexTypePGVector:
		return NewPGVectorStore(ctx, cfg.PostgresURL, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, pgvector)", cfg.IndexType)
	}
}

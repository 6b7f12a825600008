// Package vector provides named vector collections, distance search, and the
// recall client that queries them.
package vector

import (
	"context"
	"errors"
)

// Collection names, one per embedded entity field.
const (
	CollectionJobSkill       = "JobSkill_name"
	CollectionJobTitle       = "Job_title"
	CollectionJobFunction    = "JobFunction_name"
	CollectionResponsibility = "ResponsibilityItem_item"
)

// AllCollections lists every collection the indexer populates.
var AllCollections = []string{CollectionJobSkill, CollectionJobTitle, CollectionJobFunction, CollectionResponsibility}

var (
	// ErrCollectionNotFound is returned when a collection has never been populated.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrStoreUnavailable wraps unexpected vector store failures.
	ErrStoreUnavailable = errors.New("vector store unavailable")
)

// Point is an embedded entity to store in a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload string // the embedded text
}

// ScoredResult is a single search hit. Score is a cosine distance: lower is closer.
type ScoredResult struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload string  `json:"payload,omitempty"`
}

// Store holds named vector collections.
type Store interface {
	// Add inserts or replaces points in collection, creating it if needed.
	Add(ctx context.Context, collection string, points []Point) error
	// Search returns up to limit points ordered by ascending distance.
	// Returns ErrCollectionNotFound if collection does not exist.
	Search(ctx context.Context, collection string, query []float32, limit int) ([]*ScoredResult, error)
	// Remove deletes points by id. Missing ids are ignored.
	Remove(ctx context.Context, collection string, ids []string) error
	// Size returns the number of points in collection (0 if it does not exist).
	Size(ctx context.Context, collection string) (int, error)
	// Type names the implementation ("memory", "pgvector").
	Type() string
	Close() error
}

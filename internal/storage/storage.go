// Package storage defines the job catalogue and opens the configured graph backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/graph"
	"github.com/hyperjump/jobrecall/internal/models"
)

// ErrJobNotFound is returned by GetJob when no job has the given id.
var ErrJobNotFound = errors.New("job not found")

// Backend is a read-only job graph that owns its connection.
type Backend interface {
	graph.Lookup
	Close() error
}

// Storage is a writable job catalogue. The corpus loader writes through it
// and the recommendation path reads it as a graph.Lookup.
type Storage interface {
	Backend

	UpsertJob(ctx context.Context, job *models.JobRecord) error
	GetJob(ctx context.Context, id string) (*models.JobRecord, error)
	DeleteJob(ctx context.Context, id string) error
	CountJobs(ctx context.Context) (int64, error)
}

// Backend types.
const (
	BackendSQLite = "sqlite"
	BackendAGE    = "age"
)

type ageBackend struct {
	*graph.CypherLookup
	querier *graph.AGEQuerier
}

func (b *ageBackend) Close() error {
	b.querier.Close()
	return nil
}

// Open returns the graph backend described by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStorage(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendAGE:
		q, err := graph.NewAGEQuerier(ctx, cfg.PostgresURL, cfg.GraphName)
		if err != nil {
			return nil, err
		}
		return &ageBackend{CypherLookup: graph.NewCypherLookup(q), querier: q}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, age)", cfg.Backend)
	}
}

// Package indexer loads structured job records into the catalogue and the vector collections.
package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/embedding"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/storage"
	"github.com/hyperjump/jobrecall/internal/vector"
)

// Indexer writes jobs to storage and embeds their searchable fields.
type Indexer struct {
	storage  storage.Storage
	embedder embedding.Embedder
	vectors  vector.Store
	logger   *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (job indexed, job deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(store storage.Storage, embedder embedding.Embedder, vectors vector.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:  store,
		embedder: embedder,
		vectors:  vectors,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// pending groups points for one collection until their vectors are known.
type pending struct {
	collection string
	points     []vector.Point
}

// IndexJob stores job and adds its title, skills, job functions and
// responsibilities to their collections. Missing ids are assigned. Re-indexing
// a job replaces the vectors of responsibilities it no longer has.
func (idx *Indexer) IndexJob(ctx context.Context, job *models.JobRecord) error {
	normalizeJob(job)
	assignIDs(job)

	if prev, err := idx.storage.GetJob(ctx, job.ID); err == nil {
		if err := idx.removeStale(ctx, prev, job); err != nil {
			return err
		}
	}

	if err := idx.storage.UpsertJob(ctx, job); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}

	groups := []*pending{
		{collection: vector.CollectionJobTitle},
		{collection: vector.CollectionJobSkill},
		{collection: vector.CollectionJobFunction},
		{collection: vector.CollectionResponsibility},
	}
	if job.Title != "" {
		groups[0].points = append(groups[0].points, vector.Point{ID: job.ID, Payload: job.Title})
	}
	for _, s := range job.Skills {
		groups[1].points = append(groups[1].points, vector.Point{ID: s.ID, Payload: s.Name})
	}
	for _, f := range job.JobFunctions {
		groups[2].points = append(groups[2].points, vector.Point{ID: f.ID, Payload: f.Name})
	}
	for _, r := range job.Responsibilities {
		groups[3].points = append(groups[3].points, vector.Point{ID: r.ID, Payload: r.Item})
	}

	var texts []string
	for _, g := range groups {
		for _, p := range g.points {
			texts = append(texts, p.Payload)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	i := 0
	for _, g := range groups {
		for j := range g.points {
			g.points[j].Vector = embeddings[i]
			i++
		}
		if len(g.points) == 0 {
			continue
		}
		if err := idx.vectors.Add(ctx, g.collection, g.points); err != nil {
			return fmt.Errorf("failed to index %s vectors: %w", g.collection, err)
		}
	}

	idx.logger.Debug("indexer job indexed",
		zap.String("job_id", job.ID),
		zap.Int("vectors", len(texts)))
	return nil
}

// IndexJobs indexes jobs in order and returns how many succeeded before the first error.
func (idx *Indexer) IndexJobs(ctx context.Context, jobs []*models.JobRecord) (int, error) {
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := idx.IndexJob(ctx, job); err != nil {
			return i, fmt.Errorf("job %d (%s): %w", i, job.ID, err)
		}
	}
	return len(jobs), nil
}

// DeleteJob removes a job from storage together with its title and responsibility
// vectors. Skill and job function vectors are shared between jobs and stay.
func (idx *Indexer) DeleteJob(ctx context.Context, id string) error {
	idx.logger.Debug("indexer deleting job", zap.String("id", id))
	job, err := idx.storage.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if err := idx.vectors.Remove(ctx, vector.CollectionJobTitle, []string{job.ID}); err != nil {
		return fmt.Errorf("failed to delete title vector: %w", err)
	}
	if err := idx.vectors.Remove(ctx, vector.CollectionResponsibility, job.ResponsibilityIDs()); err != nil {
		return fmt.Errorf("failed to delete responsibility vectors: %w", err)
	}
	if err := idx.storage.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (idx *Indexer) removeStale(ctx context.Context, prev, next *models.JobRecord) error {
	keep := make(map[string]struct{}, len(next.Responsibilities))
	for _, r := range next.Responsibilities {
		keep[r.ID] = struct{}{}
	}
	var stale []string
	for _, r := range prev.Responsibilities {
		if _, ok := keep[r.ID]; !ok {
			stale = append(stale, r.ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := idx.vectors.Remove(ctx, vector.CollectionResponsibility, stale); err != nil {
		return fmt.Errorf("failed to remove stale responsibility vectors: %w", err)
	}
	return nil
}

func assignIDs(job *models.JobRecord) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	for i := range job.Qualification.Required {
		if job.Qualification.Required[i].ID == "" {
			job.Qualification.Required[i].ID = uuid.New().String()
		}
	}
	for i := range job.Qualification.Preferred {
		if job.Qualification.Preferred[i].ID == "" {
			job.Qualification.Preferred[i].ID = uuid.New().String()
		}
	}
	for i := range job.Responsibilities {
		if job.Responsibilities[i].ID == "" {
			job.Responsibilities[i].ID = uuid.New().String()
		}
	}
	// shared entities get a name-derived id so the same skill links across jobs
	for _, list := range [][]models.NamedEntity{job.Skills, job.JobFunctions, job.Majors} {
		for i := range list {
			if list[i].ID == "" {
				list[i].ID = EntityID(list[i].Name)
			}
		}
	}
}

// EntityID derives a stable id for a shared entity from its name.
func EntityID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(Preprocess(name)))).String()
}

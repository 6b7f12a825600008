// Package recall turns candidate features into per-signal job scores by
// searching the vector collections and expanding hits through the job graph.
package recall

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/extract"
	"github.com/hyperjump/jobrecall/internal/graph"
	"github.com/hyperjump/jobrecall/internal/vector"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

// Signal names a recall source.
type Signal string

const (
	SignalSkill      Signal = "skill"
	SignalTitle      Signal = "title"
	SignalFunction   Signal = "function"
	SignalExperience Signal = "experience"
)

// Hit is one job returned by one signal. Score is coverage for skill and
// experience, 1 - distance for title, and 1 for function.
type Hit struct {
	JobID      string
	Signal     Signal
	Score      float64
	MatchedIDs []string
}

// Searcher runs thresholded text searches against a vector collection.
type Searcher interface {
	SearchTexts(ctx context.Context, collection string, texts []string, limit int, threshold float64) ([]*vector.ScoredResult, error)
}

// Recaller runs the four recall signals.
type Recaller struct {
	searcher Searcher
	graph    graph.Lookup
	cfg      config.RecallConfig
	logger   *zap.Logger
}

// Option configures a Recaller.
type Option func(*Recaller)

// WithLogger sets the recaller logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recaller) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecaller returns a Recaller searching with searcher and expanding through lookup.
func NewRecaller(searcher Searcher, lookup graph.Lookup, cfg config.RecallConfig, opts ...Option) *Recaller {
	r := &Recaller{searcher: searcher, graph: lookup, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Query holds the candidate features each signal searches with.
type Query struct {
	Skills     []string
	Positions  []string
	Experience string // most recent work-experience description
}

// Result holds the hits of every signal, each sorted and truncated.
type Result struct {
	Skill      []Hit
	Title      []Hit
	Function   []Hit
	Experience []Hit
}

// Empty reports whether no signal returned anything.
func (r *Result) Empty() bool {
	return len(r.Skill) == 0 && len(r.Title) == 0 && len(r.Function) == 0 && len(r.Experience) == 0
}

// All returns every hit, signal by signal.
func (r *Result) All() []Hit {
	out := make([]Hit, 0, len(r.Skill)+len(r.Title)+len(r.Function)+len(r.Experience))
	out = append(out, r.Skill...)
	out = append(out, r.Title...)
	out = append(out, r.Function...)
	return append(out, r.Experience...)
}

// JobIDs returns the union of recalled job ids in first-seen order.
func (r *Result) JobIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, h := range r.All() {
		if _, ok := seen[h.JobID]; ok {
			continue
		}
		seen[h.JobID] = struct{}{}
		ids = append(ids, h.JobID)
	}
	return ids
}

// Recall runs all signals concurrently. Signals with empty input are skipped.
// The first fatal error cancels the others.
func (r *Recaller) Recall(ctx context.Context, q Query) (*Result, error) {
	res := &Result{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.Skill(gctx, q.Skills)
		res.Skill = hits
		return err
	})
	g.Go(func() error {
		hits, err := r.Title(gctx, q.Positions)
		res.Title = hits
		return err
	})
	g.Go(func() error {
		hits, err := r.Function(gctx, q.Positions)
		res.Function = hits
		return err
	})
	g.Go(func() error {
		hits, err := r.Experience(gctx, q.Experience)
		res.Experience = hits
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Debug("recall finished",
		zap.Int("skill", len(res.Skill)),
		zap.Int("title", len(res.Title)),
		zap.Int("function", len(res.Function)),
		zap.Int("experience", len(res.Experience)))
	return res, nil
}

// Skill scores jobs by the share of their skills matched by the candidate's skills.
func (r *Recaller) Skill(ctx context.Context, skills []string) ([]Hit, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	matched, err := r.matchedIDs(ctx, vector.CollectionJobSkill, skills, r.cfg.Skill)
	if err != nil {
		return nil, fmt.Errorf("skill recall: %w", err)
	}
	hits, err := r.coverage(ctx, SignalSkill, matched, r.graph.JobIDsBySkills, r.graph.JobSkillIDs)
	if err != nil {
		return nil, fmt.Errorf("skill recall: %w", err)
	}
	return rank(hits, r.cfg.Skill.TopK), nil
}

// Title scores jobs by title similarity to the desired positions. The best
// score across positions wins.
func (r *Recaller) Title(ctx context.Context, positions []string) ([]Hit, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	results, err := r.searcher.SearchTexts(ctx, vector.CollectionJobTitle, positions, r.cfg.SearchLimit, r.cfg.Title.Threshold)
	if err != nil {
		return nil, fmt.Errorf("title recall: %w", err)
	}
	best := make(map[string]float64)
	for _, res := range results {
		score := utils.RoundTo(1-res.Score, 2)
		if cur, ok := best[res.ID]; !ok || score > cur {
			best[res.ID] = score
		}
	}
	hits := make([]Hit, 0, len(best))
	for id, score := range best {
		hits = append(hits, Hit{JobID: id, Signal: SignalTitle, Score: score})
	}
	return rank(hits, r.cfg.Title.TopK), nil
}

// Function marks every job linked to a job function similar to a desired position.
func (r *Recaller) Function(ctx context.Context, positions []string) ([]Hit, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	functionIDs, err := r.matchedIDs(ctx, vector.CollectionJobFunction, positions, r.cfg.Function)
	if err != nil {
		return nil, fmt.Errorf("function recall: %w", err)
	}
	if len(functionIDs) == 0 {
		return nil, nil
	}
	jobIDs, err := r.graph.JobIDsByJobFunctions(ctx, functionIDs)
	if err != nil {
		return nil, fmt.Errorf("function recall: %w", err)
	}
	hits := make([]Hit, 0, len(jobIDs))
	for _, id := range jobIDs {
		hits = append(hits, Hit{JobID: id, Signal: SignalFunction, Score: 1})
	}
	return rank(hits, r.cfg.Function.TopK), nil
}

// Experience scores jobs by the share of their responsibilities matched by
// sentences of the candidate's most recent work description.
func (r *Recaller) Experience(ctx context.Context, description string) ([]Hit, error) {
	sentences := extract.SplitSentences(description)
	if len(sentences) == 0 {
		return nil, nil
	}
	matched, err := r.matchedIDs(ctx, vector.CollectionResponsibility, sentences, r.cfg.Experience)
	if err != nil {
		return nil, fmt.Errorf("experience recall: %w", err)
	}
	hits, err := r.coverage(ctx, SignalExperience, matched, r.graph.JobIDsByResponsibilities, r.graph.JobResponsibilityIDs)
	if err != nil {
		return nil, fmt.Errorf("experience recall: %w", err)
	}
	return rank(hits, r.cfg.Experience.TopK), nil
}

// matchedIDs searches texts in collection and returns the distinct hit ids in hit order.
func (r *Recaller) matchedIDs(ctx context.Context, collection string, texts []string, sc config.SignalConfig) ([]string, error) {
	results, err := r.searcher.SearchTexts(ctx, collection, texts, r.cfg.SearchLimit, sc.Threshold)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, res := range results {
		if _, ok := seen[res.ID]; ok {
			continue
		}
		seen[res.ID] = struct{}{}
		ids = append(ids, res.ID)
	}
	return ids, nil
}

type expandFunc func(ctx context.Context, ids []string) ([]string, error)
type idSetFunc func(ctx context.Context, jobIDs []string) (map[string][]string, error)

// coverage expands matched leaf ids to jobs and scores each job by
// |matched ∩ job leaves| / |job leaves|.
func (r *Recaller) coverage(ctx context.Context, signal Signal, matched []string, expand expandFunc, sets idSetFunc) ([]Hit, error) {
	if len(matched) == 0 {
		return nil, nil
	}
	jobIDs, err := expand(ctx, matched)
	if err != nil {
		return nil, err
	}
	if len(jobIDs) == 0 {
		return nil, nil
	}
	leaves, err := sets(ctx, jobIDs)
	if err != nil {
		return nil, err
	}
	matchedSet := make(map[string]struct{}, len(matched))
	for _, id := range matched {
		matchedSet[id] = struct{}{}
	}
	hits := make([]Hit, 0, len(jobIDs))
	for _, jobID := range jobIDs {
		all := utils.Dedupe(leaves[jobID])
		if len(all) == 0 {
			continue
		}
		var inter []string
		for _, id := range all {
			if _, ok := matchedSet[id]; ok {
				inter = append(inter, id)
			}
		}
		if len(inter) == 0 {
			continue
		}
		hits = append(hits, Hit{
			JobID:      jobID,
			Signal:     signal,
			Score:      utils.RoundTo(float64(len(inter))/float64(len(all)), 2),
			MatchedIDs: inter,
		})
	}
	return hits, nil
}

// rank sorts hits by score descending, job id ascending on ties, and keeps topK.
func rank(hits []Hit, topK int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].JobID < hits[j].JobID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Package search provides the job recommendation engine.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/graph"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/ranking"
	"github.com/hyperjump/jobrecall/internal/recall"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

// ErrInvalidRequest is returned when the request payload fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// Engine runs recall, fetches the recalled jobs and ranks them.
type Engine struct {
	recaller *recall.Recaller
	lookup   graph.Lookup
	ranker   *ranking.Ranker
	config   *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used to compute candidate tenure.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine that searches with searcher and reads jobs from lookup.
func NewEngine(cfg *config.Config, searcher recall.Searcher, lookup graph.Lookup, opts ...Option) *Engine {
	e := &Engine{
		lookup: lookup,
		config: cfg,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recaller = recall.NewRecaller(searcher, lookup, cfg.Recall, recall.WithLogger(e.logger))
	e.ranker = ranking.NewRanker(cfg.Fusion, lookup, ranking.WithLogger(e.logger))
	return e
}

// Recommend returns the best matching jobs for the candidate in req.
func (e *Engine) Recommend(ctx context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	startTime := time.Now()
	if req == nil {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	requestID := req.AppUserID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := e.logger.With(zap.String("request_id", requestID))
	resp := &models.RecommendResponse{RequestID: requestID, Results: []models.MatchResult{}}

	query, cand := ProcessRequest(req, e.now())
	if emptyQuery(query) {
		logger.Debug("empty profile, nothing to recall")
		resp.TimeMs = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	if e.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.RequestTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recalled, err := e.recaller.Recall(ctx, query)
	if err != nil {
		logger.Error("recall failed", zap.Error(err))
		return nil, fmt.Errorf("recall: %w", err)
	}
	if recalled.Empty() {
		logger.Info("recommendation finished", zap.Int("results", 0), zap.Duration("elapsed", time.Since(startTime)))
		resp.TimeMs = time.Since(startTime).Milliseconds()
		return resp, nil
	}

	jobIDs := recalled.JobIDs()
	jobs, err := e.lookup.Jobs(ctx, jobIDs)
	if err != nil {
		logger.Error("job lookup failed", zap.Error(err))
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	if missing := len(jobIDs) - len(jobs); missing > 0 {
		logger.Warn("recalled jobs missing from graph", zap.Int("missing", missing))
	}

	results, err := e.ranker.Rank(ctx, cand, jobs, recalled.All(), e.topK(req.TopK))
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	resp.Results = results
	resp.Total = len(results)
	resp.TimeMs = time.Since(startTime).Milliseconds()

	logger.Info("recommendation finished",
		zap.Int("recalled", len(jobIDs)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(startTime)))
	return resp, nil
}

func (e *Engine) topK(requested int) int {
	k := requested
	if k <= 0 {
		k = e.config.Fusion.DefaultTopK
	}
	if limit := e.config.Fusion.MaxTopK; limit > 0 && k > limit {
		k = limit
	}
	return k
}

// Job returns a single job record, or nil when it does not exist.
func (e *Engine) Job(ctx context.Context, id string) (*models.JobRecord, error) {
	jobs, err := e.lookup.Jobs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

// Jobs returns the records for ids that exist, in input order. Blank and
// repeated ids are ignored; no ids returns an empty list without a lookup.
func (e *Engine) Jobs(ctx context.Context, ids []string) ([]*models.JobRecord, error) {
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			wanted = append(wanted, id)
		}
	}
	ids = utils.Dedupe(wanted)
	if len(ids) == 0 {
		return []*models.JobRecord{}, nil
	}
	jobs, err := e.lookup.Jobs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []*models.JobRecord{}
	}
	return jobs, nil
}

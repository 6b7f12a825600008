package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/config"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/recall"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

// ResponsibilityLookup resolves responsibility ids to their text.
type ResponsibilityLookup interface {
	ResponsibilityItems(ctx context.Context, ids []string) (map[string]string, error)
}

// Ranker combines recall hits and business-rule multipliers to rank jobs.
type Ranker struct {
	config      config.FusionConfig
	lookup      ResponsibilityLookup
	multipliers []Multiplier
	logger      *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithLogger sets the ranker logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMultipliers sets custom multipliers.
func WithMultipliers(multipliers []Multiplier) Option {
	return func(r *Ranker) { r.multipliers = multipliers }
}

// NewRanker creates a Ranker. lookup materialises responsibility text for reasons.
func NewRanker(cfg config.FusionConfig, lookup ResponsibilityLookup, opts ...Option) *Ranker {
	r := &Ranker{
		config:      cfg,
		lookup:      lookup,
		multipliers: DefaultMultipliers(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every job that has at least one hit, sorts by score descending
// (job id ascending on ties), keeps topK and attaches reasons.
func (r *Ranker) Rank(ctx context.Context, cand *Candidate, jobs []*models.JobRecord, hits []recall.Hit, topK int) ([]models.MatchResult, error) {
	start := time.Now()
	byJob := groupHits(hits)

	results := make([]models.MatchResult, 0, len(jobs))
	for _, job := range jobs {
		jobHits, ok := byJob[job.ID]
		if !ok {
			continue
		}
		sc := &ScoringContext{Candidate: cand, Job: job, Hits: jobHits}
		results = append(results, r.safeScore(sc))
	}

	sortResults(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	if err := r.attachReasons(ctx, results); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("responsibility text lookup failed, experience reasons omitted", zap.Error(err))
	}

	r.logger.Debug("ranking finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

func groupHits(hits []recall.Hit) map[string]map[recall.Signal]recall.Hit {
	out := make(map[string]map[recall.Signal]recall.Hit)
	for _, h := range hits {
		m, ok := out[h.JobID]
		if !ok {
			m = make(map[recall.Signal]recall.Hit, 4)
			out[h.JobID] = m
		}
		// keep the strongest hit if a signal reports a job twice
		if cur, ok := m[h.Signal]; !ok || h.Score > cur.Score {
			m[h.Signal] = h
		}
	}
	return out
}

// safeScore scores one job. A failure keeps the job at the floor score.
func (r *Ranker) safeScore(sc *ScoringContext) (res models.MatchResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("scoring failed, using floor score",
				zap.String("job_id", sc.Job.ID),
				zap.Any("panic", p))
			res = models.MatchResult{
				JobID:  sc.Job.ID,
				Score:  r.config.FloorOrDefault(),
				Detail: models.ScoreBreakdown{Reason: []string{}},
			}
		}
	}()
	return r.Score(sc)
}

// Score computes the fused score and breakdown of one job. Reasons are left empty.
func (r *Ranker) Score(sc *ScoringContext) models.MatchResult {
	b := models.ScoreBreakdown{Reason: []string{}}

	var titleComponent float64
	if h, ok := sc.Hit(recall.SignalTitle); ok {
		b.Title = models.Float(h.Score)
		titleComponent += r.config.TitleMatch
	}
	if h, ok := sc.Hit(recall.SignalFunction); ok {
		b.Function = models.Float(h.Score)
		titleComponent += r.config.FunctionMatch
	}
	if h, ok := sc.Hit(recall.SignalSkill); ok {
		b.Skill = models.Float(h.Score)
		b.Skills = h.MatchedIDs
	}
	if h, ok := sc.Hit(recall.SignalExperience); ok {
		b.Experience = models.Float(h.Score)
		b.ResponsibilityIDs = h.MatchedIDs
	}
	yoe := YoEFit(RequiredYears(sc.Job), sc.Candidate.Years)
	b.YoE = models.Float(yoe)

	level := JobLevelCode(sc.Job.JobLevel)
	if level != LevelUnknown {
		b.JobLevel = &level
	}

	score := r.config.TitleWeight*titleComponent +
		r.config.SkillWeight*models.Value(b.Skill) +
		r.config.ExperienceWeight*models.Value(b.Experience) +
		r.config.YoEWeight*yoe

	for _, m := range r.multipliers {
		factor, ok := m.Factor(sc)
		if !ok {
			continue
		}
		m.Record(&b, factor)
		score *= factor
	}

	if math.IsNaN(score) {
		score = 0
	}
	score = utils.RoundTo(utils.Clamp(score, r.config.FloorOrDefault(), 1), 4)
	return models.MatchResult{JobID: sc.Job.ID, Score: score, Detail: b}
}

func sortResults(results []models.MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].JobID < results[j].JobID
	})
}

// attachReasons adds the skill line and one line per matched responsibility,
// resolving all responsibility text in one lookup.
func (r *Ranker) attachReasons(ctx context.Context, results []models.MatchResult) error {
	var ids []string
	for i := range results {
		if line := r.skillReason(results[i].Detail.Skill); line != "" {
			results[i].Detail.Reason = append(results[i].Detail.Reason, line)
		}
		ids = append(ids, results[i].Detail.ResponsibilityIDs...)
	}
	ids = utils.Dedupe(ids)
	if len(ids) == 0 || r.lookup == nil {
		return nil
	}
	texts, err := r.lookup.ResponsibilityItems(ctx, ids)
	if err != nil {
		return fmt.Errorf("materialise responsibilities: %w", err)
	}
	for i := range results {
		for _, id := range results[i].Detail.ResponsibilityIDs {
			if text, ok := texts[id]; ok && text != "" {
				results[i].Detail.Reason = append(results[i].Detail.Reason, "Relevant experience: "+text)
			}
		}
	}
	return nil
}

func (r *Ranker) skillReason(skill *float64) string {
	if skill == nil {
		return ""
	}
	pct := int(math.Round(*skill * 100))
	if *skill > r.config.CoreSkillRatio {
		return fmt.Sprintf("Core skills match: %d%% of the job's skills", pct)
	}
	return fmt.Sprintf("Partial skills match: %d%% of the job's skills", pct)
}

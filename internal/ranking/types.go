// Package ranking fuses recall signals and business rules into one ranked list of jobs.
package ranking

import (
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/recall"
)

// Candidate holds the request features used by the business rules.
type Candidate struct {
	// Years is the candidate's total years of experience.
	Years float64
	// Cities are the desired work locations; empty means no preference.
	Cities []string
	// JobType is the desired job type; empty means no preference.
	JobType string
}

// ScoringContext provides all the context needed for scoring one job.
type ScoringContext struct {
	Candidate *Candidate
	Job       *models.JobRecord
	// Hits holds the job's recall hit per signal; missing signals are absent.
	Hits map[recall.Signal]recall.Hit
}

// Hit returns the job's hit for signal, if any.
func (c *ScoringContext) Hit(signal recall.Signal) (recall.Hit, bool) {
	h, ok := c.Hits[signal]
	return h, ok
}

// Multiplier scales the fused score by a business-rule fit.
type Multiplier interface {
	// Factor returns the fit in [0, 1] and false when the candidate expressed
	// no preference, in which case the factor is 1 and nothing is recorded.
	Factor(ctx *ScoringContext) (float64, bool)
	// Name returns the multiplier name for logging.
	Name() string
	// Record stores the factor in the breakdown.
	Record(b *models.ScoreBreakdown, factor float64)
}

package ranking

import (
	"math"

	"github.com/hyperjump/jobrecall/internal/extract"
	"github.com/hyperjump/jobrecall/internal/models"
)

// Fit by rounded shortfall below the required minimum, in years.
var diffLow = []float64{1.0, 0.9, 0.8, 0.7, 0.5, 0.2, 0.01}

// Fit by rounded excess above a closed required maximum, in years.
var diffHigh = []float64{1.0, 0.95, 0.9, 0.8, 0.6, 0.4, 0.05}

// RequiredYears returns the job's experience requirement: among the
// Experience-category qualification items that parse, the one with the largest
// lower bound. Nil when the job states no parseable requirement.
func RequiredYears(job *models.JobRecord) *extract.YearsRange {
	var best *extract.YearsRange
	for _, item := range job.ExperienceItems() {
		r := extract.ExtractExperienceYears(item.Item)
		if r == nil {
			continue
		}
		if best == nil || r.Low > best.Low {
			best = r
		}
	}
	return best
}

// YoEFit scores how well years of experience meet required. Falling short is
// penalized harder than exceeding a closed range.
func YoEFit(required *extract.YearsRange, years float64) float64 {
	if required == nil {
		return 1.0
	}
	if shortfall := required.Low - years; shortfall > 0 {
		return lookup(diffLow, shortfall)
	}
	if required.Closed() && years > *required.High {
		return lookup(diffHigh, years-*required.High)
	}
	return 1.0
}

func lookup(table []float64, gap float64) float64 {
	i := int(math.Round(gap))
	if i >= len(table) {
		i = len(table) - 1
	}
	return table[i]
}

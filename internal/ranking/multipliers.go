package ranking

import (
	"strings"
	"unicode"

	"github.com/hyperjump/jobrecall/internal/models"
)

const remote = "remote"

// LocationMultiplier is 1 when any job location matches any desired city, else 0.
type LocationMultiplier struct{}

// Name returns the multiplier name.
func (LocationMultiplier) Name() string { return "location" }

// Factor implements Multiplier.
func (LocationMultiplier) Factor(ctx *ScoringContext) (float64, bool) {
	var cities []string
	for _, c := range ctx.Candidate.Cities {
		if c = normalizeLocation(c); c != "" {
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		return 1, false
	}
	for _, loc := range ctx.Job.WorkLocations {
		loc = normalizeLocation(loc)
		if loc == "" {
			continue
		}
		for _, city := range cities {
			if locationMatches(loc, city) {
				return 1, true
			}
		}
	}
	return 0, true
}

// Record implements Multiplier.
func (LocationMultiplier) Record(b *models.ScoreBreakdown, factor float64) {
	b.Location = models.Float(factor)
}

// locationMatches compares normalized names. Remote only matches remote;
// otherwise the words of one name must appear as a run in the other, so
// "New York" matches "New York City" but "NY" does not match "Sunnyvale".
func locationMatches(loc, city string) bool {
	if loc == remote || city == remote {
		return loc == city
	}
	a, b := locationWords(loc), locationWords(city)
	return containsRun(a, b) || containsRun(b, a)
}

func normalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func locationWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsRun reports whether sub occurs as a contiguous run of words in words.
func containsRun(words, sub []string) bool {
	if len(sub) == 0 || len(sub) > len(words) {
		return false
	}
	for i := 0; i+len(sub) <= len(words); i++ {
		match := true
		for j, w := range sub {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// JobTypeMultiplier is 1 when the job's type set contains the desired type, else 0.
type JobTypeMultiplier struct{}

// Name returns the multiplier name.
func (JobTypeMultiplier) Name() string { return "job_type" }

// Factor implements Multiplier.
func (JobTypeMultiplier) Factor(ctx *ScoringContext) (float64, bool) {
	want := normalizeJobType(ctx.Candidate.JobType)
	if want == "" {
		return 1, false
	}
	for _, t := range ctx.Job.JobType {
		if normalizeJobType(t) == want {
			return 1, true
		}
	}
	return 0, true
}

// Record implements Multiplier.
func (JobTypeMultiplier) Record(b *models.ScoreBreakdown, factor float64) {
	b.JobType = models.Float(factor)
}

// normalizeJobType lower-cases and drops everything but letters and digits,
// so "Full Time", "full-time" and "FullTime" compare equal.
func normalizeJobType(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultMultipliers returns the location and job-type multipliers.
func DefaultMultipliers() []Multiplier {
	return []Multiplier{LocationMultiplier{}, JobTypeMultiplier{}}
}

package extract

import (
	"strings"
	"time"

	"github.com/hyperjump/jobrecall/internal/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	"2006/01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

var ongoingMarkers = map[string]bool{
	"":        true,
	"present": true,
	"now":     true,
	"current": true,
	"today":   true,
	"to date": true,
}

// ParseDate parses the loose date formats found in resumes. ok is false when
// no layout matches.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Timestamps like "2021-03-01T00:00:00Z".
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// IsOngoing reports whether an end date denotes a current position.
func IsOngoing(endDate string) bool {
	return ongoingMarkers[strings.ToLower(strings.TrimSpace(endDate))]
}

// CandidateYears returns the years elapsed between the earliest parseable start
// date in experiences and now. Returns 0 when no start date parses.
func CandidateYears(experiences []models.WorkExperience, now time.Time) float64 {
	var earliest time.Time
	for _, w := range experiences {
		t, ok := ParseDate(w.StartDate)
		if !ok {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	if earliest.IsZero() || !earliest.Before(now) {
		return 0
	}
	return now.Sub(earliest).Hours() / (24 * 365.25)
}

// MostRecentExperience returns the entry with the latest end date, treating an
// ongoing position as the latest. Ties go to the later start date, then to the
// earlier entry. Returns nil for an empty list.
func MostRecentExperience(experiences []models.WorkExperience) *models.WorkExperience {
	best := -1
	var bestEnd, bestStart time.Time
	var bestOngoing bool
	for i, w := range experiences {
		ongoing := IsOngoing(w.EndDate)
		end, _ := ParseDate(w.EndDate)
		start, _ := ParseDate(w.StartDate)
		if best >= 0 {
			switch {
			case bestOngoing && !ongoing:
				continue
			case ongoing == bestOngoing && !ongoing && end.Before(bestEnd):
				continue
			case ongoing == bestOngoing && end.Equal(bestEnd) && !start.After(bestStart):
				continue
			}
		}
		best, bestEnd, bestStart, bestOngoing = i, end, start, ongoing
	}
	if best < 0 {
		return nil
	}
	return &experiences[best]
}

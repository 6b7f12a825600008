// Package cli provides CLI output helpers for jobrecall.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/pkg/utils"
)

// OutputFormat is the format for recommendation output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the API response body, for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat returns the output format named s. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteRecommendations writes response to w in the given format. JSON output is
// the ranked list, as served by the API. titles maps job ids to display titles
// for text output and may be nil.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, titles map[string]string, format OutputFormat) error {
	switch format {
	case OutputJSON:
		results := response.Results
		if results == nil {
			results = []models.MatchResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		writeRecommendationsText(w, response, titles)
		return nil
	}
}

func writeRecommendationsText(w io.Writer, response *models.RecommendResponse, titles map[string]string) {
	fmt.Fprintf(w, "\nFound %d jobs in %dms (request %s)\n\n", len(response.Results), response.TimeMs, response.RequestID)
	for i, result := range response.Results {
		writeOneResult(w, i+1, result, titles[result.JobID])
	}
}

func writeOneResult(w io.Writer, rank int, result models.MatchResult, title string) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", rank, result.Score, result.JobID)
	if title != "" {
		fmt.Fprintf(w, "Title: %s\n", utils.Truncate(title, 80))
	}
	if signals := formatSignals(&result.Detail); signals != "" {
		fmt.Fprintf(w, "Signals: %s\n", signals)
	}
	for _, reason := range result.Detail.Reason {
		fmt.Fprintf(w, "  - %s\n", utils.Truncate(reason, 160))
	}
	fmt.Fprintln(w)
}

// formatSignals renders the signals present in d as "name=value" pairs.
func formatSignals(d *models.ScoreBreakdown) string {
	fields := []struct {
		name  string
		value *float64
	}{
		{"skill", d.Skill},
		{"title", d.Title},
		{"function", d.Function},
		{"experience", d.Experience},
		{"yoe", d.YoE},
		{"location", d.Location},
		{"job_type", d.JobType},
	}
	var parts []string
	for _, f := range fields {
		if f.value != nil {
			parts = append(parts, fmt.Sprintf("%s=%.2f", f.name, *f.value))
		}
	}
	return strings.Join(parts, " ")
}

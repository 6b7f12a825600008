package models

// ScoreBreakdown records each signal's contribution to a match.
// A nil field means the signal did not fire for the job; zero is a real score.
type ScoreBreakdown struct {
	Skill             *float64 `json:"skill,omitempty"`
	Title             *float64 `json:"title,omitempty"`
	Function          *float64 `json:"function,omitempty"`
	Experience        *float64 `json:"experience,omitempty"`
	YoE               *float64 `json:"yoe,omitempty"`
	Location          *float64 `json:"location,omitempty"`
	JobType           *float64 `json:"job_type,omitempty"`
	JobLevel          *int     `json:"job_level,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	ResponsibilityIDs []string `json:"responsibility_ids,omitempty"`
	Reason            []string `json:"reason"`
}

// MatchResult is one ranked job recommendation.
type MatchResult struct {
	JobID  string         `json:"job_id"`
	Score  float64        `json:"score"`
	Detail ScoreBreakdown `json:"detail"`
}

// RecommendResponse is the outcome of a recommendation request. Only Results
// is encoded as the response body; the request id and timing travel in headers.
type RecommendResponse struct {
	RequestID string
	Results   []MatchResult
	Total     int
	TimeMs    int64
}

// Float returns a pointer to v, for populating optional breakdown fields.
func Float(v float64) *float64 {
	return &v
}

// Value returns the pointed-to value, or 0 when p is nil.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

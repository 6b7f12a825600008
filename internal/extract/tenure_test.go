package extract

import (
	"math"
	"testing"
	"time"

	"github.com/hyperjump/jobrecall/internal/models"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2020-03-15", time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2020-03", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2020/03", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"03/2020", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"Mar 2020", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"March 2020", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2020", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"sometime", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCandidateYears(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exps := []models.WorkExperience{
		{StartDate: "2021-01-01", EndDate: "present"},
		{StartDate: "2019-01-01", EndDate: "2020-12-31"},
		{StartDate: "unknown"},
	}
	got := CandidateYears(exps, now)
	if math.Abs(got-5) > 0.01 {
		t.Errorf("CandidateYears = %v, want ~5", got)
	}
	if CandidateYears(nil, now) != 0 {
		t.Error("no experiences should be 0")
	}
	if CandidateYears([]models.WorkExperience{{StartDate: "2030"}}, now) != 0 {
		t.Error("future start should be 0")
	}
}

func TestMostRecentExperience(t *testing.T) {
	tests := []struct {
		name string
		exps []models.WorkExperience
		want string
	}{
		{"empty", nil, ""},
		{"latest end", []models.WorkExperience{
			{Job: "a", StartDate: "2015", EndDate: "2018"},
			{Job: "b", StartDate: "2018", EndDate: "2021"},
			{Job: "c", StartDate: "2010", EndDate: "2015"},
		}, "b"},
		{"ongoing wins", []models.WorkExperience{
			{Job: "a", StartDate: "2015", EndDate: "2023-12"},
			{Job: "b", StartDate: "2020", EndDate: "Present"},
		}, "b"},
		{"empty end is ongoing", []models.WorkExperience{
			{Job: "a", StartDate: "2022", EndDate: ""},
			{Job: "b", StartDate: "2015", EndDate: "2023"},
		}, "a"},
		{"tie broken by start", []models.WorkExperience{
			{Job: "a", StartDate: "2018", EndDate: "present"},
			{Job: "b", StartDate: "2021", EndDate: "present"},
		}, "b"},
		{"full tie keeps first", []models.WorkExperience{
			{Job: "a", StartDate: "2018", EndDate: "2020"},
			{Job: "b", StartDate: "2018", EndDate: "2020"},
		}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MostRecentExperience(tt.exps)
			if tt.want == "" {
				if got != nil {
					t.Errorf("want nil, got %+v", got)
				}
				return
			}
			if got == nil || got.Job != tt.want {
				t.Errorf("got %+v, want job %q", got, tt.want)
			}
		})
	}
}

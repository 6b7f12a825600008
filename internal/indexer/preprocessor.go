package indexer

import (
	"strings"
	"unicode"

	"github.com/hyperjump/jobrecall/internal/models"
)

// Preprocess trims text and collapses runs of whitespace into one space.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// normalizeJob cleans whitespace in every text field that gets embedded or matched.
func normalizeJob(job *models.JobRecord) {
	job.Title = Preprocess(job.Title)
	for i := range job.Skills {
		job.Skills[i].Name = Preprocess(job.Skills[i].Name)
	}
	for i := range job.JobFunctions {
		job.JobFunctions[i].Name = Preprocess(job.JobFunctions[i].Name)
	}
	for i := range job.Majors {
		job.Majors[i].Name = Preprocess(job.Majors[i].Name)
	}
	for i := range job.WorkLocations {
		job.WorkLocations[i] = Preprocess(job.WorkLocations[i])
	}
	for i := range job.Qualification.Required {
		job.Qualification.Required[i].Item = Preprocess(job.Qualification.Required[i].Item)
	}
	for i := range job.Qualification.Preferred {
		job.Qualification.Preferred[i].Item = Preprocess(job.Qualification.Preferred[i].Item)
	}
	for i := range job.Responsibilities {
		job.Responsibilities[i].Item = Preprocess(job.Responsibilities[i].Item)
	}
}

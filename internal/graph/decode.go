package graph

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hyperjump/jobrecall/internal/models"
)

// stringList accepts a JSON string, a list of strings, or null.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*s = stringList{one}
		}
		return nil
	}
	var many []any
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list: %w", err)
	}
	for _, v := range many {
		if str := toString(v); str != "" {
			*s = append(*s, str)
		}
	}
	return nil
}

type entityDoc struct {
	ID       any    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Item     string `json:"item"`
}

type jobDoc struct {
	ID               any         `json:"id"`
	Title            string      `json:"title"`
	JobLevel         stringList  `json:"job_level"`
	JobType          stringList  `json:"job_type"`
	JobFunctions     []entityDoc `json:"job_functions"`
	WorkLocations    []entityDoc `json:"work_locations"`
	Skills           []entityDoc `json:"skills"`
	Majors           []entityDoc `json:"majors"`
	Responsibilities []entityDoc `json:"responsibilities"`
	Qualification    struct {
		Required  []entityDoc `json:"required"`
		Preferred []entityDoc `json:"preferred"`
	} `json:"qualification"`
}

// decodeJob converts a job map returned by the graph into a JobRecord.
// Entries produced by unmatched OPTIONAL MATCH clauses (null id) are dropped.
func decodeJob(m map[string]any) (*models.JobRecord, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode job row: %w", err)
	}
	var doc jobDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode job row: %w", err)
	}
	job := &models.JobRecord{
		ID:       toString(doc.ID),
		Title:    doc.Title,
		JobLevel: []string(doc.JobLevel),
		JobType:  []string(doc.JobType),
	}
	if job.ID == "" {
		return nil, fmt.Errorf("job row without id")
	}
	job.JobFunctions = named(doc.JobFunctions)
	job.Skills = named(doc.Skills)
	job.Majors = named(doc.Majors)
	for _, loc := range named(doc.WorkLocations) {
		job.WorkLocations = append(job.WorkLocations, loc.Name)
	}
	job.Qualification.Required = qualificationItems(doc.Qualification.Required)
	job.Qualification.Preferred = qualificationItems(doc.Qualification.Preferred)
	for _, r := range doc.Responsibilities {
		if id := toString(r.ID); id != "" {
			job.Responsibilities = append(job.Responsibilities, models.ResponsibilityItem{ID: id, Item: r.Item})
		}
	}
	return job, nil
}

func named(docs []entityDoc) []models.NamedEntity {
	var out []models.NamedEntity
	for _, d := range docs {
		if id := toString(d.ID); id != "" {
			out = append(out, models.NamedEntity{ID: id, Name: d.Name})
		}
	}
	return out
}

func qualificationItems(docs []entityDoc) []models.QualificationItem {
	var out []models.QualificationItem
	for _, d := range docs {
		if id := toString(d.ID); id != "" {
			out = append(out, models.QualificationItem{ID: id, Category: d.Category, Item: d.Item})
		}
	}
	return out
}

// toString renders a scalar graph value as an id string; nil becomes "".
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// toStrings converts a list value to non-empty strings.
func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

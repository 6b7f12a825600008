// Package models defines core data structures for jobs, recommendation requests, and match results.
package models

// NamedEntity is a graph node identified by id with a display name (skill, job function, major).
type NamedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QualificationItem is a single requirement line of a job.
type QualificationItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Item     string `json:"item"`
}

// Qualification groups required and preferred requirement lines.
type Qualification struct {
	Required  []QualificationItem `json:"required"`
	Preferred []QualificationItem `json:"preferred"`
}

// ResponsibilityItem is one responsibility line of a job.
type ResponsibilityItem struct {
	ID   string `json:"id"`
	Item string `json:"item"`
}

// JobRecord is the full job as read from the knowledge graph.
type JobRecord struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	JobLevel         []string             `json:"job_level"`
	JobType          []string             `json:"job_type"`
	JobFunctions     []NamedEntity        `json:"job_functions"`
	WorkLocations    []string             `json:"work_locations"`
	Skills           []NamedEntity        `json:"skills"`
	Majors           []NamedEntity        `json:"majors"`
	Qualification    Qualification        `json:"qualification"`
	Responsibilities []ResponsibilityItem `json:"responsibilities"`
}

// Qualification categories.
const (
	CategoryEducation   = "Education"
	CategoryMajor       = "Major"
	CategoryExperience  = "Experience"
	CategorySkill       = "Skill"
	CategoryLanguage    = "Language"
	CategoryCertificate = "Certificate"
	CategoryIndustry    = "Industry"
	CategoryOther       = "Other"
)

// Job levels.
const (
	LevelInternship = "Internship"
	LevelEntry      = "Entry-level"
	LevelJunior     = "Junior"
	LevelMid        = "Mid-level"
	LevelSenior     = "Senior"
	LevelLead       = "Lead"
	LevelPrincipal  = "Principal"
	LevelStaff      = "Staff"
	LevelManager    = "Manager"
	LevelDirector   = "Director"
	LevelExecutive  = "Executive"
	LevelOther      = "Other"
)

// Job types.
const (
	TypeInternship = "Internship"
	TypeFullTime   = "Full-time"
	TypePartTime   = "Part-time"
	TypeContract   = "Contract"
	TypeTemporary  = "Temporary"
	TypePerDiem    = "Per-Diem"
	TypeOther      = "Other"
)

// ExperienceItems returns the Experience-category qualification items,
// required lines first.
func (j *JobRecord) ExperienceItems() []QualificationItem {
	var out []QualificationItem
	for _, group := range [][]QualificationItem{j.Qualification.Required, j.Qualification.Preferred} {
		for _, q := range group {
			if q.Category == CategoryExperience {
				out = append(out, q)
			}
		}
	}
	return out
}

// SkillIDs returns the ids of the job's skills.
func (j *JobRecord) SkillIDs() []string {
	ids := make([]string, 0, len(j.Skills))
	for _, s := range j.Skills {
		ids = append(ids, s.ID)
	}
	return ids
}

// ResponsibilityIDs returns the ids of the job's responsibilities.
func (j *JobRecord) ResponsibilityIDs() []string {
	ids := make([]string, 0, len(j.Responsibilities))
	for _, r := range j.Responsibilities {
		ids = append(ids, r.ID)
	}
	return ids
}

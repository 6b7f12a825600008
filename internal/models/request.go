package models

import "github.com/go-playground/validator/v10"

// DesiredPosition describes what the candidate is looking for.
type DesiredPosition struct {
	City       []string `json:"city,omitempty"`
	Positions  []string `json:"positions,omitempty"`
	Industries []string `json:"industries,omitempty"`
	JobType    string   `json:"job_type,omitempty"`
}

// WorkExperience is one entry of the candidate's work history.
// Dates are free-form strings; an empty or "present" end date means ongoing.
type WorkExperience struct {
	Job         string `json:"job"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// Education is one entry of the candidate's education history.
type Education struct {
	School    string `json:"school,omitempty"`
	Degree    string `json:"degree,omitempty"`
	Major     string `json:"major,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Resume is the structured candidate resume.
type Resume struct {
	Skills          []string         `json:"skills,omitempty"`
	WorkExperiences []WorkExperience `json:"work_experiences,omitempty"`
	Educations      []Education      `json:"educations,omitempty"`
}

// RecommendRequest is the payload of a job recommendation call.
type RecommendRequest struct {
	AppUserID       string           `json:"app_user_id,omitempty"`
	TopK            int              `json:"top_k,omitempty" validate:"gte=0"`
	DesiredPosition *DesiredPosition `json:"desired_position" validate:"required"`
	Resume          *Resume          `json:"resume" validate:"required"`
}

var validate = validator.New()

// Validate checks that the desired position and resume objects are present.
func (r *RecommendRequest) Validate() error {
	return validate.Struct(r)
}


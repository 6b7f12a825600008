// Package graph reads jobs and their leaf entities from the job knowledge graph.
package graph

import (
	"context"

	"github.com/hyperjump/jobrecall/internal/models"
)

// Lookup is the read-only view of the job graph used during recall and ranking.
// Every method returns an empty result without querying when its input is empty.
type Lookup interface {
	// JobIDsBySkills returns the distinct jobs linked to any of the skill ids.
	JobIDsBySkills(ctx context.Context, skillIDs []string) ([]string, error)
	// JobIDsByJobFunctions returns the distinct jobs linked to any of the job function ids.
	JobIDsByJobFunctions(ctx context.Context, functionIDs []string) ([]string, error)
	// JobIDsByResponsibilities returns the distinct jobs owning any of the responsibility ids.
	JobIDsByResponsibilities(ctx context.Context, responsibilityIDs []string) ([]string, error)
	// JobSkillIDs returns, per job, the complete set of the job's skill ids.
	JobSkillIDs(ctx context.Context, jobIDs []string) (map[string][]string, error)
	// JobResponsibilityIDs returns, per job, the complete set of the job's responsibility ids.
	JobResponsibilityIDs(ctx context.Context, jobIDs []string) (map[string][]string, error)
	// Jobs returns full records for the job ids that exist, in input order.
	Jobs(ctx context.Context, jobIDs []string) ([]*models.JobRecord, error)
	// ResponsibilityItems returns responsibility text keyed by id.
	ResponsibilityItems(ctx context.Context, ids []string) (map[string]string, error)
}

package graph

import (
	"context"
	"fmt"

	"github.com/hyperjump/jobrecall/internal/models"
)

// Row is one result row. Every template returns a single map column named "result".
type Row map[string]any

// Querier runs a parameterized Cypher query.
type Querier interface {
	Query(ctx context.Context, cypher string, params map[string]any) ([]Row, error)
}

// Cypher templates. Ids are always bound through parameters.
const (
	queryJobIDsBySkills = `MATCH (job:Job)-[:skills]->(skill:JobSkill)
WHERE skill.id IN $ids
RETURN {job_ids: collect(DISTINCT job.id)}`

	queryJobIDsByJobFunctions = `MATCH (job:Job)-[:job_function]->(func:JobFunction)
WHERE func.id IN $ids
RETURN {job_ids: collect(DISTINCT job.id)}`

	queryJobIDsByResponsibilities = `MATCH (job:Job)-[:responsibilities]->(resp:ResponsibilityItem)
WHERE resp.id IN $ids
RETURN {job_ids: collect(DISTINCT job.id)}`

	queryJobSkillIDs = `MATCH (job:Job)-[:skills]->(skill:JobSkill)
WHERE job.id IN $ids
RETURN {job_id: job.id, ids: collect(DISTINCT skill.id)}`

	queryJobResponsibilityIDs = `MATCH (job:Job)-[:responsibilities]->(resp:ResponsibilityItem)
WHERE job.id IN $ids
RETURN {job_id: job.id, ids: collect(DISTINCT resp.id)}`

	queryResponsibilityItems = `MATCH (resp:ResponsibilityItem)
WHERE resp.id IN $ids
RETURN {id: resp.id, item: resp.item}`

	queryJobs = `MATCH (job:Job)
WHERE job.id IN $ids
OPTIONAL MATCH (job)-[:job_function]->(func:JobFunction)
OPTIONAL MATCH (job)-[:work_locations]->(loc:JobLocation)
OPTIONAL MATCH (job)-[:skills]->(skill:JobSkill)
OPTIONAL MATCH (job)-[:qualification]->(:Qualification)-[:required]->(req:QualificationItem)
OPTIONAL MATCH (job)-[:qualification]->(:Qualification)-[:preferred]->(pref:QualificationItem)
OPTIONAL MATCH (job)-[:responsibilities]->(resp:ResponsibilityItem)
OPTIONAL MATCH (job)-[:majors]->(major:JobMajor)
WITH job,
  collect(DISTINCT {id: func.id, name: func.name}) AS job_functions,
  collect(DISTINCT {id: loc.id, name: loc.name}) AS work_locations,
  collect(DISTINCT {id: skill.id, name: skill.name}) AS skills,
  collect(DISTINCT {id: req.id, category: req.category, item: req.item}) AS required,
  collect(DISTINCT {id: pref.id, category: pref.category, item: pref.item}) AS preferred,
  collect(DISTINCT {id: resp.id, item: resp.item}) AS responsibilities,
  collect(DISTINCT {id: major.id, name: major.name}) AS majors
RETURN {
  id: job.id,
  title: job.title,
  job_level: job.job_level,
  job_type: job.job_type,
  job_functions: job_functions,
  work_locations: work_locations,
  skills: skills,
  majors: majors,
  qualification: {required: required, preferred: preferred},
  responsibilities: responsibilities
}`
)

// CypherLookup implements Lookup with Cypher templates over a Querier.
type CypherLookup struct {
	q Querier
}

// NewCypherLookup returns a Lookup backed by q.
func NewCypherLookup(q Querier) *CypherLookup {
	return &CypherLookup{q: q}
}

func (l *CypherLookup) run(ctx context.Context, cypher string, ids []string) ([]map[string]any, error) {
	rows, err := l.q.Query(ctx, cypher, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m, ok := row["result"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected row shape: %v", row)
		}
		out = append(out, m)
	}
	return out, nil
}

func (l *CypherLookup) jobIDs(ctx context.Context, cypher string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := l.run(ctx, cypher, ids)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, id := range toStrings(row["job_ids"]) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

func (l *CypherLookup) idSets(ctx context.Context, cypher string, jobIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(jobIDs) == 0 {
		return out, nil
	}
	rows, err := l.run(ctx, cypher, jobIDs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		jobID := toString(row["job_id"])
		if jobID == "" {
			continue
		}
		out[jobID] = append(out[jobID], toStrings(row["ids"])...)
	}
	return out, nil
}

// JobIDsBySkills implements Lookup.
func (l *CypherLookup) JobIDsBySkills(ctx context.Context, skillIDs []string) ([]string, error) {
	ids, err := l.jobIDs(ctx, queryJobIDsBySkills, skillIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by skills: %w", err)
	}
	return ids, nil
}

// JobIDsByJobFunctions implements Lookup.
func (l *CypherLookup) JobIDsByJobFunctions(ctx context.Context, functionIDs []string) ([]string, error) {
	ids, err := l.jobIDs(ctx, queryJobIDsByJobFunctions, functionIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by job functions: %w", err)
	}
	return ids, nil
}

// JobIDsByResponsibilities implements Lookup.
func (l *CypherLookup) JobIDsByResponsibilities(ctx context.Context, responsibilityIDs []string) ([]string, error) {
	ids, err := l.jobIDs(ctx, queryJobIDsByResponsibilities, responsibilityIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by responsibilities: %w", err)
	}
	return ids, nil
}

// JobSkillIDs implements Lookup.
func (l *CypherLookup) JobSkillIDs(ctx context.Context, jobIDs []string) (map[string][]string, error) {
	m, err := l.idSets(ctx, queryJobSkillIDs, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("job skill ids: %w", err)
	}
	return m, nil
}

// JobResponsibilityIDs implements Lookup.
func (l *CypherLookup) JobResponsibilityIDs(ctx context.Context, jobIDs []string) (map[string][]string, error) {
	m, err := l.idSets(ctx, queryJobResponsibilityIDs, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("job responsibility ids: %w", err)
	}
	return m, nil
}

// ResponsibilityItems implements Lookup.
func (l *CypherLookup) ResponsibilityItems(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := l.run(ctx, queryResponsibilityItems, ids)
	if err != nil {
		return nil, fmt.Errorf("responsibility items: %w", err)
	}
	for _, row := range rows {
		if id := toString(row["id"]); id != "" {
			out[id] = toString(row["item"])
		}
	}
	return out, nil
}

// Jobs implements Lookup.
func (l *CypherLookup) Jobs(ctx context.Context, jobIDs []string) ([]*models.JobRecord, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	rows, err := l.run(ctx, queryJobs, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	byID := make(map[string]*models.JobRecord, len(rows))
	for _, row := range rows {
		job, err := decodeJob(row)
		if err != nil {
			return nil, err
		}
		byID[job.ID] = job
	}
	return orderJobs(jobIDs, byID), nil
}

// orderJobs returns the jobs present in byID following the order of ids.
func orderJobs(ids []string, byID map[string]*models.JobRecord) []*models.JobRecord {
	out := make([]*models.JobRecord, 0, len(byID))
	for _, id := range ids {
		if job, ok := byID[id]; ok {
			out = append(out, job)
			delete(byID, id)
		}
	}
	return out
}

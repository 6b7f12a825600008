package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/jobrecall/internal/models"
)

// maxParams bounds the number of bound parameters per IN list.
const maxParams = 500

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// forEachChunk runs query once per chunk of ids. The query must contain a
// single %s where the placeholder list goes.
func (s *SQLiteStorage) forEachChunk(ctx context.Context, query string, ids []string, scan func(*sql.Rows) error) error {
	for start := 0; start < len(ids); start += maxParams {
		end := min(start+maxParams, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(chunk))), args...)
		if err != nil {
			return err
		}
		for rows.Next() {
			if err := scan(rows); err != nil {
				rows.Close()
				return err
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) distinctJobIDs(ctx context.Context, query string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	seen := make(map[string]struct{})
	err := s.forEachChunk(ctx, query, ids, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// JobIDsBySkills implements graph.Lookup.
func (s *SQLiteStorage) JobIDsBySkills(ctx context.Context, skillIDs []string) ([]string, error) {
	ids, err := s.distinctJobIDs(ctx,
		`SELECT DISTINCT job_id FROM job_skills WHERE skill_id IN (%s) ORDER BY job_id`, skillIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by skills: %w", err)
	}
	return ids, nil
}

// JobIDsByJobFunctions implements graph.Lookup.
func (s *SQLiteStorage) JobIDsByJobFunctions(ctx context.Context, functionIDs []string) ([]string, error) {
	ids, err := s.distinctJobIDs(ctx,
		`SELECT DISTINCT job_id FROM job_job_functions WHERE function_id IN (%s) ORDER BY job_id`, functionIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by job functions: %w", err)
	}
	return ids, nil
}

// JobIDsByResponsibilities implements graph.Lookup.
func (s *SQLiteStorage) JobIDsByResponsibilities(ctx context.Context, responsibilityIDs []string) ([]string, error) {
	ids, err := s.distinctJobIDs(ctx,
		`SELECT DISTINCT job_id FROM responsibility_items WHERE id IN (%s) ORDER BY job_id`, responsibilityIDs)
	if err != nil {
		return nil, fmt.Errorf("job ids by responsibilities: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStorage) idSets(ctx context.Context, query string, jobIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(jobIDs) == 0 {
		return out, nil
	}
	err := s.forEachChunk(ctx, query, jobIDs, func(rows *sql.Rows) error {
		var jobID, id string
		if err := rows.Scan(&jobID, &id); err != nil {
			return err
		}
		out[jobID] = append(out[jobID], id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// JobSkillIDs implements graph.Lookup.
func (s *SQLiteStorage) JobSkillIDs(ctx context.Context, jobIDs []string) (map[string][]string, error) {
	m, err := s.idSets(ctx,
		`SELECT job_id, skill_id FROM job_skills WHERE job_id IN (%s) ORDER BY job_id, position`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("job skill ids: %w", err)
	}
	return m, nil
}

// JobResponsibilityIDs implements graph.Lookup.
func (s *SQLiteStorage) JobResponsibilityIDs(ctx context.Context, jobIDs []string) (map[string][]string, error) {
	m, err := s.idSets(ctx,
		`SELECT job_id, id FROM responsibility_items WHERE job_id IN (%s) ORDER BY job_id, position`, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("job responsibility ids: %w", err)
	}
	return m, nil
}

// ResponsibilityItems implements graph.Lookup.
func (s *SQLiteStorage) ResponsibilityItems(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(ids) == 0 {
		return out, nil
	}
	err := s.forEachChunk(ctx, `SELECT id, item FROM responsibility_items WHERE id IN (%s)`, ids,
		func(rows *sql.Rows) error {
			var id, item string
			if err := rows.Scan(&id, &item); err != nil {
				return err
			}
			out[id] = item
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("responsibility items: %w", err)
	}
	return out, nil
}

// Jobs implements graph.Lookup. Missing ids are skipped.
func (s *SQLiteStorage) Jobs(ctx context.Context, jobIDs []string) ([]*models.JobRecord, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	byID := make(map[string]*models.JobRecord)
	err := s.forEachChunk(ctx, `SELECT id, title, job_level, job_type FROM jobs WHERE id IN (%s)`, jobIDs,
		func(rows *sql.Rows) error {
			var job models.JobRecord
			var levels, types string
			if err := rows.Scan(&job.ID, &job.Title, &levels, &types); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(levels), &job.JobLevel); err != nil {
				return fmt.Errorf("failed to unmarshal job level of %s: %w", job.ID, err)
			}
			if err := json.Unmarshal([]byte(types), &job.JobType); err != nil {
				return fmt.Errorf("failed to unmarshal job type of %s: %w", job.ID, err)
			}
			byID[job.ID] = &job
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	if len(byID) == 0 {
		return nil, nil
	}
	found := make([]string, 0, len(byID))
	for id := range byID {
		found = append(found, id)
	}
	if err := s.loadChildren(ctx, found, byID); err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}

	out := make([]*models.JobRecord, 0, len(byID))
	for _, id := range jobIDs {
		if job, ok := byID[id]; ok {
			out = append(out, job)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *SQLiteStorage) loadChildren(ctx context.Context, jobIDs []string, byID map[string]*models.JobRecord) error {
	named := []struct {
		query string
		field func(*models.JobRecord) *[]models.NamedEntity
	}{
		{`SELECT js.job_id, s.id, s.name FROM job_skills js JOIN skills s ON s.id = js.skill_id
		  WHERE js.job_id IN (%s) ORDER BY js.job_id, js.position`,
			func(j *models.JobRecord) *[]models.NamedEntity { return &j.Skills }},
		{`SELECT jf.job_id, f.id, f.name FROM job_job_functions jf JOIN job_functions f ON f.id = jf.function_id
		  WHERE jf.job_id IN (%s) ORDER BY jf.job_id, jf.position`,
			func(j *models.JobRecord) *[]models.NamedEntity { return &j.JobFunctions }},
		{`SELECT jm.job_id, m.id, m.name FROM job_majors jm JOIN majors m ON m.id = jm.major_id
		  WHERE jm.job_id IN (%s) ORDER BY jm.job_id, jm.position`,
			func(j *models.JobRecord) *[]models.NamedEntity { return &j.Majors }},
	}
	for _, n := range named {
		err := s.forEachChunk(ctx, n.query, jobIDs, func(rows *sql.Rows) error {
			var jobID string
			var e models.NamedEntity
			if err := rows.Scan(&jobID, &e.ID, &e.Name); err != nil {
				return err
			}
			if job, ok := byID[jobID]; ok {
				field := n.field(job)
				*field = append(*field, e)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	err := s.forEachChunk(ctx,
		`SELECT job_id, name FROM job_locations WHERE job_id IN (%s) ORDER BY job_id, position`, jobIDs,
		func(rows *sql.Rows) error {
			var jobID, name string
			if err := rows.Scan(&jobID, &name); err != nil {
				return err
			}
			if job, ok := byID[jobID]; ok {
				job.WorkLocations = append(job.WorkLocations, name)
			}
			return nil
		})
	if err != nil {
		return err
	}

	err = s.forEachChunk(ctx,
		`SELECT job_id, id, kind, category, item FROM qualification_items
		 WHERE job_id IN (%s) ORDER BY job_id, position`, jobIDs,
		func(rows *sql.Rows) error {
			var jobID, kind string
			var q models.QualificationItem
			if err := rows.Scan(&jobID, &q.ID, &kind, &q.Category, &q.Item); err != nil {
				return err
			}
			job, ok := byID[jobID]
			if !ok {
				return nil
			}
			if kind == kindPreferred {
				job.Qualification.Preferred = append(job.Qualification.Preferred, q)
			} else {
				job.Qualification.Required = append(job.Qualification.Required, q)
			}
			return nil
		})
	if err != nil {
		return err
	}

	return s.forEachChunk(ctx,
		`SELECT job_id, id, item FROM responsibility_items WHERE job_id IN (%s) ORDER BY job_id, position`, jobIDs,
		func(rows *sql.Rows) error {
			var jobID string
			var r models.ResponsibilityItem
			if err := rows.Scan(&jobID, &r.ID, &r.Item); err != nil {
				return err
			}
			if job, ok := byID[jobID]; ok {
				job.Responsibilities = append(job.Responsibilities, r)
			}
			return nil
		})
}

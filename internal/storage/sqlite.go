package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/jobrecall/internal/graph"
	"github.com/hyperjump/jobrecall/internal/models"
)

var _ graph.Lookup = (*SQLiteStorage)(nil)

// SQLiteStorage implements Storage using SQLite. Jobs and their leaf
// entities are stored relationally and read back through the graph.Lookup methods.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		job_level TEXT NOT NULL DEFAULT '[]',
		job_type TEXT NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_skills (
		job_id TEXT NOT NULL,
		skill_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (job_id, skill_id)
	);
	CREATE INDEX IF NOT EXISTS idx_job_skills_skill ON job_skills(skill_id);

	CREATE TABLE IF NOT EXISTS job_functions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_job_functions (
		job_id TEXT NOT NULL,
		function_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (job_id, function_id)
	);
	CREATE INDEX IF NOT EXISTS idx_job_job_functions_function ON job_job_functions(function_id);

	CREATE TABLE IF NOT EXISTS majors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_majors (
		job_id TEXT NOT NULL,
		major_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (job_id, major_id)
	);

	CREATE TABLE IF NOT EXISTS job_locations (
		job_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (job_id, position)
	);

	CREATE TABLE IF NOT EXISTS qualification_items (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		item TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_qualification_items_job ON qualification_items(job_id);

	CREATE TABLE IF NOT EXISTS responsibility_items (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		item TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responsibility_items_job ON responsibility_items(job_id);
	`
	_, err := db.Exec(schema)
	return err
}

const (
	kindRequired  = "required"
	kindPreferred = "preferred"
)

// UpsertJob inserts or replaces a job together with all of its leaf entities.
// Shared entities (skills, job functions, majors) are upserted by id.
func (s *SQLiteStorage) UpsertJob(ctx context.Context, job *models.JobRecord) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	levels, err := json.Marshal(nonNil(job.JobLevel))
	if err != nil {
		return fmt.Errorf("failed to marshal job level: %w", err)
	}
	types, err := json.Marshal(nonNil(job.JobType))
	if err != nil {
		return fmt.Errorf("failed to marshal job type: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (id, title, job_level, job_type, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, job_level = excluded.job_level,
		 job_type = excluded.job_type, updated_at = excluded.updated_at`,
		job.ID, job.Title, string(levels), string(types), time.Now(),
	); err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.ID, err)
	}
	if err := deleteJobChildren(ctx, tx, job.ID); err != nil {
		return err
	}

	links := []struct {
		entities []models.NamedEntity
		upsert   string
		link     string
	}{
		{job.Skills,
			`INSERT INTO skills (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			`INSERT OR IGNORE INTO job_skills (job_id, skill_id, position) VALUES (?, ?, ?)`},
		{job.JobFunctions,
			`INSERT INTO job_functions (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			`INSERT OR IGNORE INTO job_job_functions (job_id, function_id, position) VALUES (?, ?, ?)`},
		{job.Majors,
			`INSERT INTO majors (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			`INSERT OR IGNORE INTO job_majors (job_id, major_id, position) VALUES (?, ?, ?)`},
	}
	for _, l := range links {
		for i, e := range l.entities {
			if _, err := tx.ExecContext(ctx, l.upsert, e.ID, e.Name); err != nil {
				return fmt.Errorf("failed to upsert entity %s: %w", e.ID, err)
			}
			if _, err := tx.ExecContext(ctx, l.link, job.ID, e.ID, i); err != nil {
				return fmt.Errorf("failed to link entity %s: %w", e.ID, err)
			}
		}
	}

	for i, loc := range job.WorkLocations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_locations (job_id, position, name) VALUES (?, ?, ?)`, job.ID, i, loc,
		); err != nil {
			return fmt.Errorf("failed to insert location: %w", err)
		}
	}

	pos := 0
	for _, group := range []struct {
		kind  string
		items []models.QualificationItem
	}{{kindRequired, job.Qualification.Required}, {kindPreferred, job.Qualification.Preferred}} {
		for _, q := range group.items {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO qualification_items (id, job_id, kind, category, item, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				q.ID, job.ID, group.kind, q.Category, q.Item, pos,
			); err != nil {
				return fmt.Errorf("failed to insert qualification %s: %w", q.ID, err)
			}
			pos++
		}
	}

	for i, r := range job.Responsibilities {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO responsibility_items (id, job_id, item, position) VALUES (?, ?, ?, ?)`,
			r.ID, job.ID, r.Item, i,
		); err != nil {
			return fmt.Errorf("failed to insert responsibility %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func deleteJobChildren(ctx context.Context, tx *sql.Tx, jobID string) error {
	for _, table := range []string{
		"job_skills", "job_job_functions", "job_majors", "job_locations",
		"qualification_items", "responsibility_items",
	} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE job_id = ?`, jobID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// GetJob returns a single job by id.
func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*models.JobRecord, error) {
	jobs, err := s.Jobs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return jobs[0], nil
}

// DeleteJob removes a job and the rows it owns. Shared entities are kept.
func (s *SQLiteStorage) DeleteJob(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteJobChildren(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountJobs returns the total number of jobs.
func (s *SQLiteStorage) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

package indexer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/models"
)

// DefaultExtensions are the corpus file types IndexDirectory picks up.
var DefaultExtensions = []string{".json", ".jsonl"}

// LoadFile reads job records from a JSON array, a single JSON object, or
// JSON lines (.jsonl, one record per line).
func LoadFile(path string) ([]*models.JobRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return decodeLines(data)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var job models.JobRecord
		if err := json.Unmarshal(trimmed, &job); err != nil {
			return nil, fmt.Errorf("decode job in %s: %w", path, err)
		}
		return []*models.JobRecord{&job}, nil
	}
	var jobs []*models.JobRecord
	if err := json.Unmarshal(trimmed, &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs in %s: %w", path, err)
	}
	return jobs, nil
}

func decodeLines(data []byte) ([]*models.JobRecord, error) {
	var jobs []*models.JobRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var job models.JobRecord
		if err := json.Unmarshal(text, &job); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, sc.Err()
}

// IndexFile loads path and indexes every job in it.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	jobs, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := idx.IndexJobs(ctx, jobs)
	idx.logger.Debug("indexer file indexed", zap.String("path", path), zap.Int("jobs", n))
	return n, err
}

// IndexDirectory walks dir recursively and indexes each corpus file whose extension
// is in allowedExts (DefaultExtensions when empty). Returns the number of jobs
// indexed and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	if len(allowedExts) == 0 {
		allowedExts = DefaultExtensions
	}
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", dir)
	}
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		count, err := idx.IndexFile(ctx, path)
		n += count
		return err
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

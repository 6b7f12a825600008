package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/storage"
)

// FileSync tracks which jobs each corpus file holds so that editing or removing
// a file keeps the catalogue in step. Safe for concurrent use.
type FileSync struct {
	idx   *Indexer
	mu    sync.Mutex
	files map[string][]string // cleaned path -> job ids
}

// NewFileSync returns a FileSync that indexes through idx.
func NewFileSync(idx *Indexer) *FileSync {
	return &FileSync{idx: idx, files: make(map[string][]string)}
}

// FileChanged re-indexes the jobs in path and deletes jobs the file used to
// hold but no longer does.
func (s *FileSync) FileChanged(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	jobs, err := LoadFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.idx.IndexJobs(ctx, jobs)
	ids := make([]string, 0, n)
	for _, job := range jobs[:n] {
		ids = append(ids, job.ID)
	}
	if err != nil {
		s.files[path] = union(s.files[path], ids)
		return fmt.Errorf("index %s: %w", path, err)
	}

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	var stale []string
	for _, id := range s.files[path] {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	s.files[path] = ids
	s.idx.logger.Info("corpus file indexed",
		zap.String("path", path),
		zap.Int("jobs", n),
		zap.Int("stale", len(stale)))
	return s.deleteJobs(ctx, stale)
}

// FileRemoved deletes every job indexed from path.
func (s *FileSync) FileRemoved(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.files[path]
	delete(s.files, path)
	if len(ids) > 0 {
		s.idx.logger.Info("corpus file removed", zap.String("path", path), zap.Int("jobs", len(ids)))
	}
	return s.deleteJobs(ctx, ids)
}

// Jobs returns the ids last indexed from path.
func (s *FileSync) Jobs(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files[filepath.Clean(path)]...)
}

func (s *FileSync) deleteJobs(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if s.heldElsewhere(id) {
			continue
		}
		if err := s.idx.DeleteJob(ctx, id); err != nil && !errors.Is(err, storage.ErrJobNotFound) {
			errs = append(errs, fmt.Errorf("delete job %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// heldElsewhere reports whether another tracked file still lists id. Callers hold s.mu.
func (s *FileSync) heldElsewhere(id string) bool {
	for _, ids := range s.files {
		for _, other := range ids {
			if other == id {
				return true
			}
		}
	}
	return false
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

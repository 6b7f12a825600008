package storage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/jobrecall/internal/config"
)

// Footprint returns the bytes on disk used by the job catalogue and the
// memory vector index. Remote backends and in-memory databases count as 0.
func Footprint(cfg *config.Config) (int64, error) {
	var paths []string
	if cfg.Storage.Backend == BackendSQLite && cfg.Storage.DatabasePath != ":memory:" {
		// WAL mode keeps recent writes in side files
		paths = append(paths, cfg.Storage.DatabasePath, cfg.Storage.DatabasePath+"-wal")
	}
	if cfg.Vector.IndexType == "memory" {
		paths = append(paths, cfg.Vector.IndexPath)
	}
	return diskUsage(paths...)
}

// diskUsage sums file sizes under paths. Missing and empty paths are skipped.
func diskUsage(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

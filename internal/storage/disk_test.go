package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/jobrecall/internal/config"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1.bin")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"file", []string{f1}, 5},
		{"dir", []string{sub}, 2},
		{"file and dir", []string{f1, sub}, 7},
		{"missing skipped", []string{f1, filepath.Join(dir, "nope")}, 5},
		{"empty skipped", []string{"", f1}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := diskUsage(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("diskUsage = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFootprint(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "jobs.db")
	idx := filepath.Join(dir, "jobs.idx")
	if err := os.WriteFile(db, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idx, make([]byte, 4), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Storage.DatabasePath = db
	cfg.Vector.IndexPath = idx
	got, err := Footprint(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got != 14 {
		t.Errorf("Footprint = %d, want 14", got)
	}

	cfg.Storage.Backend = BackendAGE
	cfg.Vector.IndexType = "pgvector"
	got, _ = Footprint(cfg)
	if got != 0 {
		t.Errorf("remote backends should not count, got %d", got)
	}
}

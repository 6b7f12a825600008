package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) FileChanged(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, path)
	return nil
}

func (r *recorder) FileRemoved(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func (r *recorder) counts(path string) (changed, removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.changed {
		if p == path {
			changed++
		}
	}
	for _, p := range r.removed {
		if p == path {
			removed++
		}
	}
	return changed, removed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"/c/jobs.json", []string{".json"}, true},
		{"/c/jobs.JSONL", []string{"jsonl"}, true},
		{"/c/notes.txt", []string{".json", ".jsonl"}, false},
		{"/c/anything", nil, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.exts); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}

func TestWatcher_debouncedChangeAndRemove(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".json"}, rec, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "jobs.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(`[]`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { c, _ := rec.counts(path); return c >= 1 })
	time.Sleep(150 * time.Millisecond)
	if c, _ := rec.counts(path); c != 1 {
		t.Errorf("rapid writes should collapse into one change, got %d", c)
	}
	if c, _ := rec.counts(filepath.Join(dir, "notes.txt")); c != 0 {
		t.Error("filtered extension reported")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { _, r := rec.counts(path); return r == 1 })
}

func TestWatcher_newSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".json"}, rec, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "2024")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to pick up the new directory
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(sub, "jobs.json")
	if err := os.WriteFile(path, []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { c, _ := rec.counts(path); return c >= 1 })
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	top := filepath.Join(dir, "a.json")
	deep := filepath.Join(sub, "b.json")
	for _, p := range []string{top, deep} {
		if err := os.WriteFile(p, []byte(`[]`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	NewWatcher([]string{dir}, []string{".json"}, rec).SyncExisting()
	if c, _ := rec.counts(deep); c != 1 {
		t.Error("recursive sync should reach nested files")
	}

	rec = &recorder{}
	NewWatcher([]string{dir}, []string{".json"}, rec, WithRecursive(false)).SyncExisting()
	if c, _ := rec.counts(top); c != 1 {
		t.Error("top-level file not synced")
	}
	if c, _ := rec.counts(deep); c != 0 {
		t.Error("non-recursive sync reached a nested file")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, &recorder{})
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

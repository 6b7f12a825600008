package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/jobrecall/internal/embedding"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/storage"
	"github.com/hyperjump/jobrecall/internal/vector"
)

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".json", []string{".json", ".jsonl"}, true},
		{".JSON", []string{".json"}, true},
		{".jsonl", []string{"jsonl"}, true},
		{".txt", []string{".json"}, false},
		{"", []string{".json"}, false},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func TestPreprocess(t *testing.T) {
	if got := Preprocess("  Build \n\t  pipelines  "); got != "Build pipelines" {
		t.Errorf("Preprocess = %q", got)
	}
}

func testIndexer(t *testing.T) (*Indexer, *storage.SQLiteStorage, *vector.MemoryStore) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	embedder := embedding.NewMockEmbedder(8)
	t.Cleanup(func() { _ = embedder.Close() })
	vecs, err := vector.NewMemoryStore(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = vecs.Close() })
	return NewIndexer(store, embedder, vecs), store, vecs
}

func sampleJob() *models.JobRecord {
	return &models.JobRecord{
		Title:        "Backend  Engineer",
		JobFunctions: []models.NamedEntity{{Name: "Engineering"}},
		Skills:       []models.NamedEntity{{ID: "s-go", Name: "Go"}, {Name: "Docker"}},
		Qualification: models.Qualification{
			Required: []models.QualificationItem{{Category: models.CategoryExperience, Item: "3+ years"}},
		},
		Responsibilities: []models.ResponsibilityItem{
			{Item: "Design APIs"},
			{Item: "Operate services"},
		},
	}
}

func size(t *testing.T, s *vector.MemoryStore, collection string) int {
	t.Helper()
	n, err := s.Size(context.Background(), collection)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestIndexJob(t *testing.T) {
	idx, store, vecs := testIndexer(t)
	ctx := context.Background()

	job := sampleJob()
	if err := idx.IndexJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	if job.ID == "" || job.Skills[1].ID == "" || job.Responsibilities[0].ID == "" || job.Qualification.Required[0].ID == "" {
		t.Fatalf("ids not assigned: %+v", job)
	}
	if job.Title != "Backend Engineer" {
		t.Errorf("title not normalized: %q", job.Title)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Skills) != 2 || len(got.Responsibilities) != 2 {
		t.Errorf("stored job: %+v", got)
	}

	for collection, want := range map[string]int{
		vector.CollectionJobTitle:       1,
		vector.CollectionJobSkill:       2,
		vector.CollectionJobFunction:    1,
		vector.CollectionResponsibility: 2,
	} {
		if n := size(t, vecs, collection); n != want {
			t.Errorf("%s size = %d, want %d", collection, n, want)
		}
	}

	// title vectors are keyed by job id
	hits, err := vecs.Search(ctx, vector.CollectionJobTitle, mustEmbed(t, idx, "Backend Engineer"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != job.ID {
		t.Errorf("title hit = %+v", hits)
	}
}

func mustEmbed(t *testing.T, idx *Indexer, text string) []float32 {
	t.Helper()
	v, err := idx.embedder.Embed(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestIndexJob_sharedEntitiesLinkAcrossJobs(t *testing.T) {
	idx, store, vecs := testIndexer(t)
	ctx := context.Background()

	a := &models.JobRecord{ID: "a", Title: "A", Skills: []models.NamedEntity{{Name: "Python"}}}
	b := &models.JobRecord{ID: "b", Title: "B", Skills: []models.NamedEntity{{Name: " python "}}}
	if n, err := idx.IndexJobs(ctx, []*models.JobRecord{a, b}); err != nil || n != 2 {
		t.Fatalf("IndexJobs = %d, %v", n, err)
	}
	if a.Skills[0].ID != b.Skills[0].ID {
		t.Errorf("same skill name should share an id: %s vs %s", a.Skills[0].ID, b.Skills[0].ID)
	}
	ids, err := store.JobIDsBySkills(ctx, []string{a.Skills[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("JobIDsBySkills = %v", ids)
	}
	if n := size(t, vecs, vector.CollectionJobSkill); n != 1 {
		t.Errorf("skill collection size = %d, want 1", n)
	}
}

func TestIndexJob_reindexRemovesStaleResponsibilities(t *testing.T) {
	idx, _, vecs := testIndexer(t)
	ctx := context.Background()

	job := &models.JobRecord{ID: "j", Title: "T", Responsibilities: []models.ResponsibilityItem{
		{ID: "r1", Item: "one"}, {ID: "r2", Item: "two"},
	}}
	if err := idx.IndexJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	job = &models.JobRecord{ID: "j", Title: "T", Responsibilities: []models.ResponsibilityItem{
		{ID: "r2", Item: "two"},
	}}
	if err := idx.IndexJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	if n := size(t, vecs, vector.CollectionResponsibility); n != 1 {
		t.Errorf("responsibility collection size = %d, want 1", n)
	}
}

func TestDeleteJob(t *testing.T) {
	idx, store, vecs := testIndexer(t)
	ctx := context.Background()

	job := sampleJob()
	if err := idx.IndexJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	if err := idx.DeleteJob(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetJob(ctx, job.ID); !errors.Is(err, storage.ErrJobNotFound) {
		t.Errorf("job still stored: %v", err)
	}
	if n := size(t, vecs, vector.CollectionJobTitle); n != 0 {
		t.Errorf("title vectors left: %d", n)
	}
	if n := size(t, vecs, vector.CollectionResponsibility); n != 0 {
		t.Errorf("responsibility vectors left: %d", n)
	}
	if n := size(t, vecs, vector.CollectionJobSkill); n != 2 {
		t.Errorf("skill vectors should be kept, got %d", n)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"jobs.json", `[{"id":"1","title":"A"},{"id":"2","title":"B"}]`, 2, false},
		{"one.json", `{"id":"1","title":"A","job_level":["Senior"]}`, 1, false},
		{"jobs.jsonl", "{\"id\":\"1\"}\n\n{\"id\":\"2\"}\n", 2, false},
		{"empty.json", "  ", 0, false},
		{"bad.json", `[{"id":`, 0, true},
		{"bad.jsonl", "{\"id\":\"1\"}\nnope\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			jobs, err := LoadFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(jobs) != tt.want {
				t.Errorf("got %d jobs, want %d", len(jobs), tt.want)
			}
		})
	}
}

func TestIndexDirectory(t *testing.T) {
	idx, store, _ := testIndexer(t)
	ctx := context.Background()
	dir := t.TempDir()
	sub := filepath.Join(dir, "more")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "a.json"):   `[{"id":"a","title":"A"}]`,
		filepath.Join(sub, "b.jsonl"):  `{"id":"b","title":"B"}`,
		filepath.Join(dir, "notes.md"): `ignored`,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	n, err := idx.IndexDirectory(ctx, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("indexed %d jobs, want 2", n)
	}
	count, _ := store.CountJobs(ctx)
	if count != 2 {
		t.Errorf("stored %d jobs, want 2", count)
	}

	if _, err := idx.IndexDirectory(ctx, filepath.Join(dir, "a.json"), nil); err == nil {
		t.Error("expected error for non-directory")
	}
}

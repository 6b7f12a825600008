package vector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/jobrecall/internal/embedding"
)

type brokenStore struct{ *MemoryStore }

func (b brokenStore) Search(ctx context.Context, collection string, query []float32, limit int) ([]*ScoredResult, error) {
	return nil, errors.New("connection refused")
}

type countingStore struct {
	*MemoryStore
	inFlight int32
	peak     int32
	mu       sync.Mutex
}

func (c *countingStore) Search(ctx context.Context, collection string, query []float32, limit int) ([]*ScoredResult, error) {
	n := atomic.AddInt32(&c.inFlight, 1)
	c.mu.Lock()
	if n > c.peak {
		c.peak = n
	}
	c.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	defer atomic.AddInt32(&c.inFlight, -1)
	return c.MemoryStore.Search(ctx, collection, query, limit)
}

func skillFixture(t *testing.T) (*MemoryStore, *embedding.StaticEmbedder) {
	t.Helper()
	s, _ := NewMemoryStore(2)
	err := s.Add(context.Background(), CollectionJobSkill, []Point{
		{ID: "skill-go", Vector: []float32{1, 0}, Payload: "Go"},
		{ID: "skill-golang", Vector: []float32{0.95, 0.05}, Payload: "Golang"},
		{ID: "skill-excel", Vector: []float32{0, 1}, Payload: "Excel"},
	})
	if err != nil {
		t.Fatal(err)
	}
	emb := embedding.NewStaticEmbedder(2, map[string][]float32{
		"go":    {1, 0},
		"excel": {0, 1},
		"other": {-1, 0},
	})
	return s, emb
}

func TestClient_Search_threshold(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(s, emb)
	hits, err := c.Search(context.Background(), CollectionJobSkill, []float32{1, 0}, 10, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want go and golang", hits)
	}
	for _, h := range hits {
		if h.Score >= 0.25 {
			t.Errorf("hit %s has distance %v above threshold", h.ID, h.Score)
		}
	}
}

func TestClient_Search_thresholdIsExclusive(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(s, emb)
	// Excel is at distance exactly 1 from (1, 0).
	hits, _ := c.Search(context.Background(), CollectionJobSkill, []float32{1, 0}, 10, 1)
	for _, h := range hits {
		if h.ID == "skill-excel" {
			t.Error("distance equal to threshold must be filtered out")
		}
	}
}

func TestClient_Search_missingCollection(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(s, emb)
	hits, err := c.Search(context.Background(), CollectionResponsibility, []float32{1, 0}, 10, 0.6)
	if err != nil || len(hits) != 0 {
		t.Errorf("missing collection: hits=%v err=%v, want none", hits, err)
	}
}

func TestClient_Search_storeFailure(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(brokenStore{s}, emb)
	_, err := c.Search(context.Background(), CollectionJobSkill, []float32{1, 0}, 10, 0.25)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestClient_SearchTexts(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(s, emb)
	hits, err := c.SearchTexts(context.Background(), CollectionJobSkill, []string{"Excel", "Go", "Other"}, 10, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	want := []string{"skill-excel", "skill-go", "skill-golang"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v (input order)", ids, want)
			break
		}
	}
	if emb.Calls() != 1 {
		t.Errorf("embed calls = %d, want one batch", emb.Calls())
	}
}

func TestClient_SearchTexts_empty(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(s, emb)
	hits, err := c.SearchTexts(context.Background(), CollectionJobSkill, nil, 10, 0.25)
	if err != nil || hits != nil {
		t.Errorf("empty input: %v, %v", hits, err)
	}
	if emb.Calls() != 0 {
		t.Error("empty input should not embed")
	}
}

func TestClient_SearchTexts_boundedConcurrency(t *testing.T) {
	s, emb := skillFixture(t)
	store := &countingStore{MemoryStore: s}
	c := NewClient(store, emb, WithMaxConcurrency(2))
	texts := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	if _, err := c.SearchTexts(context.Background(), CollectionJobSkill, texts, 10, 0.25); err != nil {
		t.Fatal(err)
	}
	if store.peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", store.peak)
	}
}

func TestClient_SearchTexts_storeFailure(t *testing.T) {
	s, emb := skillFixture(t)
	c := NewClient(brokenStore{s}, emb)
	_, err := c.SearchTexts(context.Background(), CollectionJobSkill, []string{"go", "excel"}, 10, 0.25)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

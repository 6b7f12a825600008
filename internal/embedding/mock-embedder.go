package embedding

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/hyperjump/jobrecall/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// vector derived from the text hash so that the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

// HashString returns a deterministic non-negative hash of s.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// StaticEmbedder returns preset vectors for known texts (matched case-insensitively)
// and falls back to MockEmbedder for anything else. It counts batch calls.
type StaticEmbedder struct {
	*MockEmbedder
	vectors map[string][]float32
	mu      sync.Mutex
	calls   int
}

// NewStaticEmbedder returns a StaticEmbedder with the given text → vector table.
func NewStaticEmbedder(dimensions int, vectors map[string][]float32) *StaticEmbedder {
	table := make(map[string][]float32, len(vectors))
	for k, v := range vectors {
		table[strings.ToLower(k)] = v
	}
	return &StaticEmbedder{MockEmbedder: NewMockEmbedder(dimensions), vectors: table}
}

// Embed returns the preset vector for text or a hash-derived one.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[strings.ToLower(text)]; ok {
		return v, nil
	}
	return e.MockEmbedder.Embed(ctx, text)
}

// EmbedBatch calls Embed for each text.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Calls returns the number of EmbedBatch calls made so far.
func (e *StaticEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

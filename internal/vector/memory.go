package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryStore is an in-memory vector store using brute-force cosine distance.
// Suitable for tests, development corpora, and small deployments.
type MemoryStore struct {
	dimensions  int
	collections map[string]*memoryCollection
	mu          sync.RWMutex
}

type memoryCollection struct {
	ids      []string
	vectors  [][]float32
	payloads []string
	pos      map[string]int
}

func newMemoryCollection() *memoryCollection {
	return &memoryCollection{pos: make(map[string]int)}
}

// NewMemoryStore creates an in-memory store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions:  dimensions,
		collections: make(map[string]*memoryCollection),
	}, nil
}

// Type returns the store type identifier.
func (m *MemoryStore) Type() string {
	return string(IndexTypeMemory)
}

// Add inserts or replaces points in collection.
func (m *MemoryStore) Add(ctx context.Context, collection string, points []Point) error {
	for _, p := range points {
		if len(p.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch for %s: got %d, expected %d", p.ID, len(p.Vector), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		c = newMemoryCollection()
		m.collections[collection] = c
	}
	for _, p := range points {
		vec := make([]float32, m.dimensions)
		copy(vec, p.Vector)
		if i, exists := c.pos[p.ID]; exists {
			c.vectors[i] = vec
			c.payloads[i] = p.Payload
			continue
		}
		c.pos[p.ID] = len(c.ids)
		c.ids = append(c.ids, p.ID)
		c.vectors = append(c.vectors, vec)
		c.payloads = append(c.payloads, p.Payload)
	}
	return nil
}

// Search returns the limit closest points by cosine distance, ties broken by id.
func (m *MemoryStore) Search(ctx context.Context, collection string, query []float32, limit int) ([]*ScoredResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%s: %w", collection, ErrCollectionNotFound)
	}
	if limit <= 0 || len(c.ids) == 0 {
		return nil, nil
	}
	results := make([]*ScoredResult, len(c.ids))
	for i, vec := range c.vectors {
		results[i] = &ScoredResult{ID: c.ids[i], Score: CosineDistance(query, vec), Payload: c.payloads[i]}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}

// Remove deletes points by id by rebuilding the collection slices.
func (m *MemoryStore) Remove(ctx context.Context, collection string, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	next := newMemoryCollection()
	for i, id := range c.ids {
		if removeSet[id] {
			continue
		}
		next.pos[id] = len(next.ids)
		next.ids = append(next.ids, id)
		next.vectors = append(next.vectors, c.vectors[i])
		next.payloads = append(next.payloads, c.payloads[i])
	}
	m.collections[collection] = next
	return nil
}

// Size returns the number of points in collection.
func (m *MemoryStore) Size(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.ids), nil
	}
	return 0, nil
}

// Collections returns the collection names in sorted order.
func (m *MemoryStore) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save persists the store to path. Directory is created if needed. Format: dimension (4),
// collection count (4), then per collection: nameLen (4), name, n (4), then per point:
// idLen (4), id, payloadLen (4), payload, vector (dimension*4 bytes).
func (m *MemoryStore) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(names))); err != nil {
		return fmt.Errorf("write collection count: %w", err)
	}
	for _, name := range names {
		c := m.collections[name]
		if err := writeString(w, name); err != nil {
			return fmt.Errorf("write collection name: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(c.ids))); err != nil {
			return fmt.Errorf("write count: %w", err)
		}
		for i, id := range c.ids {
			if err := writeString(w, id); err != nil {
				return fmt.Errorf("write id: %w", err)
			}
			if err := writeString(w, c.payloads[i]); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}
			if _, err := w.Write(float32SliceToBytes(c.vectors[i])); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
	}
	return w.Flush()
}

// Load reads the store from path and replaces the in-memory contents. Dimensions must match.
// If the file does not exist, no error is returned and the store is unchanged.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", dim, m.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read collection count: %w", err)
	}
	collections := make(map[string]*memoryCollection, count)
	buf := make([]byte, m.dimensions*4)
	for ci := uint32(0); ci < count; ci++ {
		name, err := readString(r)
		if err != nil {
			return fmt.Errorf("read collection name: %w", err)
		}
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return fmt.Errorf("read count: %w", err)
		}
		c := newMemoryCollection()
		for i := uint32(0); i < n; i++ {
			id, err := readString(r)
			if err != nil {
				return fmt.Errorf("read id: %w", err)
			}
			payload, err := readString(r)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			if _, err := io.ReadFull(r, buf); err != nil {
				return fmt.Errorf("read vector: %w", err)
			}
			c.pos[id] = len(c.ids)
			c.ids = append(c.ids, id)
			c.payloads = append(c.payloads, payload)
			c.vectors = append(c.vectors, bytesToFloat32Slice(buf))
		}
		collections[name] = c
	}

	m.mu.Lock()
	m.collections = collections
	m.mu.Unlock()
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

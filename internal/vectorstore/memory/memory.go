package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"doctwin/internal/domain"
)

// entry pairs a chunk with its embedding in a single record so the two
// can never desynchronize under partial insert failures.
type entry struct {
	chunk  domain.Chunk
	vector []float64
}

// Storage is an in-memory vector index using brute-force cosine similarity.
// A full scan per query is fine: the index is bounded to one document's
// worth of chunks per session.
type Storage struct {
	mu      sync.RWMutex
	entries []entry
}

func NewStorage() *Storage { return &Storage{} }

// Add appends chunk/vector pairs. Both slices are inserted atomically:
// on a length mismatch nothing is stored.
func (s *Storage) Add(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		s.entries = append(s.entries, entry{chunk: chunks[i], vector: vectors[i]})
	}
	return nil
}

// Search ranks every stored vector against the query vector by cosine
// similarity, descending, ties broken by insertion order, and returns the
// first topK. An empty index yields an empty result, never an error.
func (s *Storage) Search(vector []float64, topK int) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 3
	}
	results := make([]domain.SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, domain.SearchResult{
			Chunk: e.chunk,
			Score: CosineSimilarity(vector, e.vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// CosineSimilarity is the dot product divided by the product of Euclidean
// norms, defined as 0 when either norm is zero.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

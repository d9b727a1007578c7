package vectorstore

import "doctwin/internal/domain"

// Storage holds (chunk, vector) pairs and supports similarity ranking.
// The session index is append-only between clears; no deduplication and
// no per-entry deletion.
type Storage interface {
	Add(chunks []domain.Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) []domain.SearchResult
	Len() int
	Clear()
}

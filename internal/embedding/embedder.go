package embedding

import "context"

// Embedder converts free text into a fixed-dimension numeric vector.
// Implementations degrade to a zero vector rather than failing the caller:
// a failed embedding simply scores low in similarity search.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

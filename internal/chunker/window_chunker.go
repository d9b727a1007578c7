package chunker

import "doctwin/internal/domain"

// WindowChunker splits text into fixed-size overlapping windows.
// The window slides forward by size-overlap characters each step, so
// consecutive chunks share exactly overlap characters. Slices shorter
// than minLen are dropped as trailing noise.
type WindowChunker struct {
	size    int
	overlap int
	minLen  int
}

func NewWindowChunker(size, overlap, minLen int) *WindowChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 100
	}
	if minLen < 0 {
		minLen = 10
	}
	return &WindowChunker{size: size, overlap: overlap, minLen: minLen}
}

// Chunk produces chunks in left-to-right document order. Order is
// meaningful: it is preserved into the vector index and the first chunks
// feed summary generation.
func (c *WindowChunker) Chunk(source, text string) []domain.Chunk {
	step := c.size - c.overlap
	var chunks []domain.Chunk
	idx := 0
	for start := 0; start < len(text); start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		slice := text[start:end]
		if len(slice) < c.minLen {
			continue
		}
		chunks = append(chunks, domain.Chunk{Source: source, Text: slice, Index: idx})
		idx++
	}
	return chunks
}

package domain

import "context"

// Chunk is a bounded slice of an ingested document, the atomic unit of retrieval.
type Chunk struct {
	Source string
	Text   string
	Index  int
}

// SearchResult is a matching chunk with its cosine similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// MediaBlob is a base64-encoded image or video inlined into generation
// requests. At most one is live per session.
type MediaBlob struct {
	MimeType string
	Data     string
}

// Turn is one prior conversation message supplied by the caller per query.
// Kind "file" marks a turn whose content is an uploaded file name.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Kind    string `json:"type,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	KindFile      = "file"
)

// Part is one piece of a generation request: either text or an inline media blob.
type Part struct {
	Text  string
	Media *MediaBlob
}

// Extractor converts a source file into a cleaned plain-text blob.
// An empty result means the file had no machine-extractable text; that is
// a normal outcome, not an error.
type Extractor interface {
	Extract(path, mimeType string) (string, error)
}

// Chunker splits extracted text into overlapping windows for indexing.
type Chunker interface {
	Chunk(source, text string) []Chunk
}

// Embedder converts free text into a fixed-dimension numeric vector.
// Implementations degrade to a zero vector rather than failing the caller.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorStore holds (chunk, vector) pairs and supports similarity ranking.
type VectorStore interface {
	Add(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) []SearchResult
	Len() int
	Clear()
}

// Generator sends an assembled multi-part prompt to the remote completion
// endpoint. It always returns some answer text; remote failures surface as
// degraded messages, never as errors.
type Generator interface {
	Generate(ctx context.Context, parts []Part) string
	Summarize(ctx context.Context, parts []Part) string
}

// ChatService is the operation surface the core exposes to its callers.
type ChatService interface {
	IngestDocument(ctx context.Context, path, mimeType string) (int, error)
	IngestMedia(path, mimeType string) error
	Answer(ctx context.Context, question string, history []Turn) string
	Summarize(ctx context.Context) string
	Reset()
}

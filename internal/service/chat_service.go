package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"doctwin/internal/domain"
)

// ChatService owns the single session: one vector index and at most one
// media blob. Every ingestion clears prior state first, so the session
// holds exactly one knowledge source at a time. A mutex serializes
// ingestion/reset against query reads so a query never observes the index
// mid-rebuild.
type ChatService struct {
	mu        sync.Mutex
	extractor domain.Extractor
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     domain.VectorStore
	generator domain.Generator
	builder   PromptBuilder

	topK           int
	scoreThreshold float64
	summaryChunks  int

	chunks []domain.Chunk
	media  *domain.MediaBlob
}

var _ domain.ChatService = (*ChatService)(nil)

// PromptBuilder is the service-facing subset of the prompt package.
type PromptBuilder interface {
	Build(question, context string, history []domain.Turn, media *domain.MediaBlob) []domain.Part
	BuildSummary(chunkTexts []string) []domain.Part
}

// Options tunes retrieval behavior.
type Options struct {
	TopK           int
	ScoreThreshold float64
	SummaryChunks  int
}

func New(extractor domain.Extractor, chunker domain.Chunker, embedder domain.Embedder,
	store domain.VectorStore, generator domain.Generator, builder PromptBuilder, opts Options) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.ScoreThreshold == 0 {
		opts.ScoreThreshold = 0.15
	}
	if opts.SummaryChunks <= 0 {
		opts.SummaryChunks = 10
	}
	return &ChatService{
		extractor:      extractor,
		chunker:        chunker,
		embedder:       embedder,
		store:          store,
		generator:      generator,
		builder:        builder,
		topK:           opts.TopK,
		scoreThreshold: opts.ScoreThreshold,
		summaryChunks:  opts.SummaryChunks,
	}
}

// IngestDocument extracts, chunks, embeds and indexes a document file.
// A return of 0 signals no extractable text; the caller surfaces that as a
// client error, not a crash.
func (s *ChatService) IngestDocument(ctx context.Context, path, mimeType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()

	text, err := s.extractor.Extract(path, mimeType)
	if err != nil {
		return 0, err
	}
	slog.Info("extracted document", "path", path, "chars", len(text))
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	chunks := s.chunker.Chunk(path, text)
	slog.Info("ingesting chunks", "count", len(chunks))

	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := s.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}
	if err := s.store.Add(chunks, vectors); err != nil {
		return 0, err
	}
	s.chunks = chunks
	return len(chunks), nil
}

// IngestMedia loads a media file as the session's single inline blob,
// replacing any indexed document. Always succeeds if the file is readable.
func (s *ChatService) IngestMedia(path, mimeType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read media %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.media = &domain.MediaBlob{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	slog.Info("media set", "mime", mimeType, "encoded_len", len(s.media.Data))
	return nil
}

// Answer retrieves relevant context for the question, assembles the prompt
// with truncated history and any inline media, and drives the generation
// fallback. Remote-service failures come back as degraded text, never as
// a panic or error across this boundary.
func (s *ChatService) Answer(ctx context.Context, question string, history []domain.Turn) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	retrieved := ""
	if s.store.Len() > 0 {
		qvec, err := s.embedder.Embed(ctx, question)
		if err != nil {
			slog.Warn("question embedding failed", "error", err)
		} else {
			results := s.store.Search(qvec, s.topK)
			// strictly exclusive threshold: a best score of exactly 0.15
			// means greetings/unrelated chat, so no context is injected
			if len(results) > 0 && results[0].Score > s.scoreThreshold {
				texts := make([]string, len(results))
				for i, r := range results {
					texts[i] = r.Chunk.Text
				}
				retrieved = strings.Join(texts, "\n\n")
			}
		}
	}

	parts := s.builder.Build(question, retrieved, history, s.media)
	return s.generator.Generate(ctx, parts)
}

// Summarize generates bullet highlights from the first chunks of the
// current document, in index order. Same degrade-don't-throw contract as
// Answer.
func (s *ChatService) Summarize(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chunks) == 0 {
		return "No document found. 📄"
	}
	n := s.summaryChunks
	if n > len(s.chunks) {
		n = len(s.chunks)
	}
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		texts[i] = s.chunks[i].Text
	}
	return s.generator.Summarize(ctx, s.builder.BuildSummary(texts))
}

// Reset clears the vector index and media blob unconditionally. Idempotent.
func (s *ChatService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *ChatService) reset() {
	s.store.Clear()
	s.chunks = nil
	s.media = nil
}

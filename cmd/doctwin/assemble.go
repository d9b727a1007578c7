package main

import (
	"time"

	"doctwin/internal/chunker"
	"doctwin/internal/config"
	"doctwin/internal/domain"
	"doctwin/internal/embedding"
	"doctwin/internal/embedding/gemini"
	"doctwin/internal/extractor"
	"doctwin/internal/generator"
	"doctwin/internal/prompt"
	"doctwin/internal/service"
	"doctwin/internal/vectorstore"
	"doctwin/internal/vectorstore/memory"
)

// assemble wires the retrieval-and-generation core from config.
func assemble(cfg *config.AppConfig) domain.ChatService {
	apiKey := cfg.APIKey()

	var emb embedding.Embedder = gemini.NewClient(gemini.Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        apiKey,
		Model:         cfg.Embedding.Model,
		Dimension:     cfg.Embedding.Dimension,
		MaxAttempts:   cfg.Embedding.MaxAttempts,
		RateLimitWait: time.Duration(cfg.Embedding.RateLimitWaitSecs) * time.Second,
		FailureWait:   time.Duration(cfg.Embedding.FailureWaitSecs) * time.Second,
		Timeout:       time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})

	gen := generator.NewClient(generator.Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        apiKey,
		Models:        cfg.Generation.Models,
		SummaryModels: cfg.Generation.SummaryModels,
		Passes:        cfg.Generation.Passes,
		Timeout:       time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
		RateLimitWait: time.Duration(cfg.Generation.RateLimitWaitSecs) * time.Second,
		PassWait:      time.Duration(cfg.Generation.PassWaitSecs) * time.Second,
		PrePause:      time.Duration(cfg.Generation.PrePauseSecs) * time.Second,
	})

	var store vectorstore.Storage = memory.NewStorage()

	return service.New(
		extractor.New(),
		chunker.NewWindowChunker(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, cfg.Retrieval.MinChunkLen),
		emb,
		store,
		gen,
		prompt.NewBuilder(cfg.HistoryLimit),
		service.Options{
			TopK:           cfg.Retrieval.TopK,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
			SummaryChunks:  cfg.SummaryChunks,
		},
	)
}

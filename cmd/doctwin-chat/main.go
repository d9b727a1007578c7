package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"doctwin/internal/chunker"
	"doctwin/internal/config"
	"doctwin/internal/embedding"
	"doctwin/internal/embedding/gemini"
	"doctwin/internal/extractor"
	"doctwin/internal/generator"
	"doctwin/internal/prompt"
	"doctwin/internal/service"
	"doctwin/internal/tui"
	"doctwin/internal/vectorstore"
	"doctwin/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/doctwin/config.yaml if not provided)")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) != 1 {
		fmt.Println("Usage: doctwin-chat [--config=config.yaml] document.pdf")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

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
	svc := service.New(
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

	path := inputs[0]
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	chunks, err := svc.IngestDocument(context.Background(), path, mimeType)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	if chunks == 0 {
		log.Fatalf("no extractable text in %s", path)
	}
	summary := svc.Summarize(context.Background())

	m := tui.New(svc, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

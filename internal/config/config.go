package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig configures the remote embedding client.
type EmbeddingConfig struct {
	Model             string `yaml:"model"`
	Dimension         int    `yaml:"dimension"`
	MaxAttempts       int    `yaml:"max_attempts"`
	RateLimitWaitSecs int    `yaml:"rate_limit_wait_secs"`
	FailureWaitSecs   int    `yaml:"failure_wait_secs"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures chunking and similarity search.
type RetrievalConfig struct {
	ChunkSize      int     `yaml:"chunk_size"`
	ChunkOverlap   int     `yaml:"chunk_overlap"`
	MinChunkLen    int     `yaml:"min_chunk_len"`
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// GenerationConfig configures the remote completion client and its
// model fallback schedule.
type GenerationConfig struct {
	Models            []string `yaml:"models"`
	SummaryModels     []string `yaml:"summary_models"`
	Passes            int      `yaml:"passes"`
	TimeoutSecs       int      `yaml:"timeout_secs"`
	RateLimitWaitSecs int      `yaml:"rate_limit_wait_secs"`
	PassWaitSecs      int      `yaml:"pass_wait_secs"`
	PrePauseSecs      int      `yaml:"pre_pause_secs"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	APIKeyEnv     string           `yaml:"api_key_env"`
	BaseURL       string           `yaml:"base_url"`
	HistoryLimit  int              `yaml:"history_limit"`
	SummaryChunks int              `yaml:"summary_chunks"`
	Embedding     EmbeddingConfig  `yaml:"embedding"`
	Retrieval     RetrievalConfig  `yaml:"retrieval"`
	Generation    GenerationConfig `yaml:"generation"`
	Server        ServerConfig     `yaml:"server"`
}

// APIKey resolves the remote-service credential from the environment.
// An empty result means all remote-dependent operations must degrade.
func (c *AppConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/doctwin/config.yaml.
// If neither exists, it writes defaults to ~/.config/doctwin/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "doctwin", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.SummaryChunks == 0 {
		cfg.SummaryChunks = 10
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "embedding-001"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 768
	}
	if cfg.Embedding.MaxAttempts == 0 {
		cfg.Embedding.MaxAttempts = 3
	}
	if cfg.Embedding.RateLimitWaitSecs == 0 {
		cfg.Embedding.RateLimitWaitSecs = 10
	}
	if cfg.Embedding.FailureWaitSecs == 0 {
		cfg.Embedding.FailureWaitSecs = 2
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 100
	}
	if cfg.Retrieval.MinChunkLen == 0 {
		cfg.Retrieval.MinChunkLen = 10
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.15
	}
	if len(cfg.Generation.Models) == 0 {
		cfg.Generation.Models = []string{
			"gemini-2.0-flash",
			"gemini-2.0-flash-lite",
			"gemini-flash-latest",
			"gemini-pro-latest",
			"gemini-1.5-flash",
			"gemini-1.5-pro",
		}
	}
	if len(cfg.Generation.SummaryModels) == 0 {
		cfg.Generation.SummaryModels = []string{
			"gemini-2.0-flash",
			"gemini-flash-latest",
			"gemini-2.0-flash-lite",
			"gemini-pro-latest",
		}
	}
	if cfg.Generation.Passes == 0 {
		cfg.Generation.Passes = 2
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 30
	}
	if cfg.Generation.RateLimitWaitSecs == 0 {
		cfg.Generation.RateLimitWaitSecs = 15
	}
	if cfg.Generation.PassWaitSecs == 0 {
		cfg.Generation.PassWaitSecs = 20
	}
	if cfg.Generation.PrePauseSecs == 0 {
		cfg.Generation.PrePauseSecs = 1
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}

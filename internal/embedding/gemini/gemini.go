package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is an embeddings client for the Gemini embedContent REST endpoint.
// It owns the retry policy for transient rate-limit failures and never
// fails its caller: exhausting all attempts yields a zero vector of the
// configured dimensionality.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	dimension     int
	maxAttempts   int
	rateLimitWait time.Duration
	failureWait   time.Duration
	client        *http.Client
	sleep         func(time.Duration)
}

// Config configures the embeddings client.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Dimension     int
	MaxAttempts   int
	RateLimitWait time.Duration
	FailureWait   time.Duration
	Timeout       time.Duration
}

// NewClient creates a new embeddings client. An empty APIKey is allowed;
// the client then short-circuits every call to the zero vector without
// attempting network I/O.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "embedding-001"
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = 768
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RateLimitWait == 0 {
		cfg.RateLimitWait = 10 * time.Second
	}
	if cfg.FailureWait == 0 {
		cfg.FailureWait = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		dimension:     cfg.Dimension,
		maxAttempts:   cfg.MaxAttempts,
		rateLimitWait: cfg.RateLimitWait,
		failureWait:   cfg.FailureWait,
		client:        &http.Client{Timeout: cfg.Timeout},
		sleep:         time.Sleep,
	}
}

// SetSleep replaces the inter-attempt wait function. Tests inject a
// recording no-op so retries do not run on the wall clock.
func (c *Client) SetSleep(fn func(time.Duration)) { c.sleep = fn }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed returns an embedding vector for the given text. On a rate-limit
// response it waits and retries; on any other failure it waits a shorter
// interval and retries; after maxAttempts total attempts it returns the
// zero vector. The returned error is always nil: degradation is the policy.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.apiKey == "" {
		return make([]float64, c.dimension), nil
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.model, c.apiKey)
	body, _ := json.Marshal(embedRequest{
		Model:   "models/" + c.model,
		Content: embedContent{Parts: []embedPart{{Text: text}}},
	})

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		vec, retryWait, err := c.attempt(ctx, url, body)
		if err == nil {
			return vec, nil
		}
		slog.Warn("embedding attempt failed", "attempt", attempt+1, "error", err)
		if attempt < c.maxAttempts-1 {
			c.sleep(retryWait)
		}
	}
	return make([]float64, c.dimension), nil
}

func (c *Client) attempt(ctx context.Context, url string, body []byte) ([]float64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, c.failureWait, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.failureWait, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, c.rateLimitWait, fmt.Errorf("embedding rate limited: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.failureWait, fmt.Errorf("embedding failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failureWait, err
	}
	var out embedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, c.failureWait, fmt.Errorf("malformed embedding response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, c.failureWait, fmt.Errorf("malformed embedding response: no values")
	}
	return out.Embedding.Values, 0, nil
}

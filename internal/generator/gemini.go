package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"doctwin/internal/domain"
)

// Client drives the Gemini generateContent REST endpoint through a bounded
// fallback search: an ordered candidate model list, tried in order, over a
// fixed number of full passes. It always returns some answer text; a fully
// exhausted fallback chain yields a degraded message embedding the last
// recorded error, never an error value.
type Client struct {
	baseURL       string
	apiKey        string
	models        []string
	summaryModels []string
	passes        int
	rateLimitWait time.Duration
	passWait      time.Duration
	prePause      time.Duration
	client        *http.Client
	sleep         func(time.Duration)
}

// Config configures the generation client.
type Config struct {
	BaseURL       string
	APIKey        string
	Models        []string
	SummaryModels []string
	Passes        int
	Timeout       time.Duration
	RateLimitWait time.Duration
	PassWait      time.Duration
	PrePause      time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}
	}
	if len(cfg.SummaryModels) == 0 {
		cfg.SummaryModels = cfg.Models
	}
	if cfg.Passes == 0 {
		cfg.Passes = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimitWait == 0 {
		cfg.RateLimitWait = 15 * time.Second
	}
	if cfg.PassWait == 0 {
		cfg.PassWait = 20 * time.Second
	}
	if cfg.PrePause == 0 {
		cfg.PrePause = time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		models:        cfg.Models,
		summaryModels: cfg.SummaryModels,
		passes:        cfg.Passes,
		rateLimitWait: cfg.RateLimitWait,
		passWait:      cfg.PassWait,
		prePause:      cfg.PrePause,
		client:        &http.Client{Timeout: cfg.Timeout},
		sleep:         time.Sleep,
	}
}

// SetSleep replaces the wait function so tests can record waits instead of
// sleeping.
func (c *Client) SetSleep(fn func(time.Duration)) { c.sleep = fn }

// Wire types for the generateContent endpoint. The response shape is
// validated before the answer text is extracted; a missing candidate is a
// distinct malformed-response condition, not an unchecked field access.
type generateRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate runs the full double-pass fallback over the answer model list.
func (c *Client) Generate(ctx context.Context, parts []domain.Part) string {
	if c.apiKey == "" {
		return "GEMINI_API_KEY not found. 🔑"
	}
	answer, lastErr := c.run(ctx, parts, c.models, c.passes)
	if lastErr == "" {
		return answer
	}
	return fmt.Sprintf("Error: All my brain modules are busy! 🤯 The free tier is extremely busy. Please try again in 1 minute. (Details: %s)", lastErr)
}

// Summarize runs a single pass over the shorter summary model list.
func (c *Client) Summarize(ctx context.Context, parts []domain.Part) string {
	if c.apiKey == "" {
		return "GEMINI_API_KEY not found. 🔑"
	}
	answer, lastErr := c.run(ctx, parts, c.summaryModels, 1)
	if lastErr == "" {
		return answer
	}
	return fmt.Sprintf("Could not generate summary. All brains busy! 💤 (Details: %s)", lastErr)
}

// run tries every model in list order once per pass. The first successful
// response with at least one candidate short-circuits the whole operation.
// A rate-limited model costs a wait before moving on; an unavailable model
// is skipped for free; anything else is recorded as the last error. Between
// exhausted passes the fleet gets a longer rest. Returns ("", lastError)
// when every model in every pass failed.
func (c *Client) run(ctx context.Context, parts []domain.Part, models []string, passes int) (string, string) {
	body, _ := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: wireParts(parts)}},
	})

	lastErr := "no models attempted"
	// blanket pause to reduce baseline pressure on the shared quota
	c.sleep(c.prePause)

	for pass := 0; pass < passes; pass++ {
		for _, model := range models {
			slog.Debug("trying generation model", "pass", pass+1, "model", model)
			answer, status, err := c.call(ctx, model, body)
			if err != nil {
				slog.Warn("generation transport failure", "model", model, "error", err)
				lastErr = "Server Connectivity Issue"
				continue
			}
			switch {
			case status == http.StatusTooManyRequests:
				slog.Warn("generation rate limited", "model", model)
				lastErr = fmt.Sprintf("Limit reached on %s. ⏱️", model)
				c.sleep(c.rateLimitWait)
			case status == http.StatusNotFound:
				slog.Debug("model unavailable", "model", model)
			case status != http.StatusOK:
				slog.Warn("generation failed", "model", model, "status", status)
				lastErr = fmt.Sprintf("API Status %d", status)
			case answer != "":
				return answer, ""
			default:
				lastErr = "empty response"
			}
		}
		if pass < passes-1 {
			slog.Info("all models busy, resting before next pass", "wait", c.passWait)
			c.sleep(c.passWait)
		}
	}
	return "", lastErr
}

// call performs one request against one model. A non-nil error is a
// transport failure; otherwise the HTTP status tells the fallback loop what
// to do next.
func (c *Client) call(ctx context.Context, model string, body []byte) (string, int, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", http.StatusOK, nil
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", http.StatusOK, nil
	}
	return out.Candidates[0].Content.Parts[0].Text, http.StatusOK, nil
}

func wireParts(parts []domain.Part) []requestPart {
	out := make([]requestPart, 0, len(parts))
	for _, p := range parts {
		if p.Media != nil {
			out = append(out, requestPart{InlineData: &inlineData{
				MimeType: p.Media.MimeType,
				Data:     p.Media.Data,
			}})
			continue
		}
		out = append(out, requestPart{Text: p.Text})
	}
	return out
}

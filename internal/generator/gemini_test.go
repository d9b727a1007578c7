package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctwin/internal/domain"
)

// sleepRecorder captures waits instead of sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
}

func (r *sleepRecorder) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, d := range r.waits {
		sum += d
	}
	return sum
}

const successBody = `{"candidates":[{"content":{"parts":[{"text":"the answer"}]}}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, models []string) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		Models:        models,
		SummaryModels: models,
	})
	rec := &sleepRecorder{}
	c.SetSleep(rec.sleep)
	return c, rec
}

func TestGenerate_FirstModelSuccess(t *testing.T) {
	var requests int
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(successBody))
	}, []string{"model-a", "model-b"})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, 1, requests)
	// only the blanket pre-pause
	assert.Equal(t, time.Second, rec.total())
}

func TestGenerate_AllRateLimited(t *testing.T) {
	var requests int
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}, []string{"model-a", "model-b", "model-c"})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Contains(t, answer, "All my brain modules are busy")
	assert.Contains(t, answer, "Limit reached on model-c")
	// every model attempted once per pass, both passes
	assert.Equal(t, 6, requests)
	// 1s pre-pause + 6 rate-limit waits of 15s + 20s between passes
	assert.Equal(t, 1*time.Second+6*15*time.Second+20*time.Second, rec.total())
}

func TestGenerate_NotFoundSkipsWithoutWait(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "model-a") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(successBody))
	}, []string{"model-a", "model-b"})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, time.Second, rec.total())
}

func TestGenerate_RecordsLastStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, []string{"model-a"})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Contains(t, answer, "API Status 500")
}

func TestGenerate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Models: []string{"model-a"}})
	c.SetSleep(func(time.Duration) {})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Contains(t, answer, "Server Connectivity Issue")
}

func TestGenerate_MalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}, []string{"model-a"})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Contains(t, answer, "empty response")
}

func TestGenerate_MissingCredential(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Models: []string{"model-a"}})

	answer := c.Generate(context.Background(), []domain.Part{{Text: "q"}})
	assert.Contains(t, answer, "GEMINI_API_KEY not found")
	assert.Equal(t, 0, requests)
}

func TestSummarize_SinglePass(t *testing.T) {
	var requests int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}, []string{"model-a", "model-b"})

	answer := c.Summarize(context.Background(), []domain.Part{{Text: "sum"}})
	assert.Contains(t, answer, "Could not generate summary")
	// one pass only: each model once
	assert.Equal(t, 2, requests)
}

func TestWireParts_MediaFirst(t *testing.T) {
	parts := wireParts([]domain.Part{
		{Media: &domain.MediaBlob{MimeType: "image/png", Data: "abc"}},
		{Text: "prompt"},
	})
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
	assert.Equal(t, "abc", parts[0].InlineData.Data)
	assert.Equal(t, "prompt", parts[1].Text)
}

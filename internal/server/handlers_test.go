package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctwin/internal/domain"
)

// fakeService scripts the core's responses for handler tests.
type fakeService struct {
	chunks     int
	resets     int
	mediaCalls int
	lastQ      string
	lastHist   []domain.Turn
}

func (f *fakeService) IngestDocument(_ context.Context, path, mimeType string) (int, error) {
	return f.chunks, nil
}

func (f *fakeService) IngestMedia(path, mimeType string) error {
	f.mediaCalls++
	return nil
}

func (f *fakeService) Answer(_ context.Context, question string, history []domain.Turn) string {
	f.lastQ = question
	f.lastHist = history
	return "the answer"
}

func (f *fakeService) Summarize(_ context.Context) string { return "the summary" }

func (f *fakeService) Reset() { f.resets++ }

func multipartBody(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandleUpload_Document(t *testing.T) {
	svc := &fakeService{chunks: 3}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	body, ctype := multipartBody(t, "doc.txt", "text/plain", "some document text")
	resp, err := http.Post(srv.URL+"/upload", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(3), out["chunks"])
	assert.Equal(t, "the summary", out["summary"])
	assert.Equal(t, false, out["is_media"])
}

func TestHandleUpload_NoExtractableText(t *testing.T) {
	svc := &fakeService{chunks: 0}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	body, ctype := multipartBody(t, "scan.pdf", "application/pdf", "binary")
	resp, err := http.Post(srv.URL+"/upload", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleUpload_Media(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	body, ctype := multipartBody(t, "pic.png", "image/png", "pngbytes")
	resp, err := http.Post(srv.URL+"/upload", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["is_media"])
	assert.Equal(t, "image/png", out["mime"])
	assert.Equal(t, 1, svc.mediaCalls)
}

func TestHandleQuery(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	payload := `{"question":"What color is the sky?","history":[{"role":"user","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/query", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "the answer", out["answer"])
	assert.Equal(t, "What color is the sky?", svc.lastQ)
	require.Len(t, svc.lastHist, 1)
	assert.Equal(t, "hi", svc.lastHist[0].Content)
}

func TestHandleQuery_MissingQuestion(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/query", "application/json", strings.NewReader(`{"question":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClear(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/clear", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.resets)
}

func TestCORSPreflight(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(New("", svc).Handler)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/query", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

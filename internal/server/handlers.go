package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"doctwin/internal/domain"
)

type Handlers struct {
	svc domain.ChatService
}

func NewHandlers(svc domain.ChatService) *Handlers {
	return &Handlers{svc: svc}
}

type queryRequest struct {
	Question string        `json:"question"`
	History  []domain.Turn `json:"history"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary"`
	IsMedia bool   `json:"is_media"`
	Mime    string `json:"mime,omitempty"`
}

// HandleUpload accepts a multipart file, stores it in a temp location, and
// routes it to the media or document ingestion flow. A document with no
// extractable text is a client error, not a server crash.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	tmpPath, err := saveTemp(file, header.Filename)
	if err != nil {
		slog.Error("temp save failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
		return
	}
	defer os.Remove(tmpPath)

	mimeType := header.Header.Get("Content-Type")
	slog.Info("file uploaded", "name", header.Filename, "mime", mimeType)

	if strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/") {
		if err := h.svc.IngestMedia(tmpPath, mimeType); err != nil {
			slog.Error("media ingestion failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		kind := "video"
		if strings.HasPrefix(mimeType, "image/") {
			kind = "image"
		}
		writeJSON(w, http.StatusOK, uploadResponse{
			Message: fmt.Sprintf("Successfully processed %s", header.Filename),
			Chunks:  0,
			Summary: fmt.Sprintf("✨ **%s LOADED!** I can now see this %s. Ask me anything about it! 📸🎥", strings.ToUpper(kind), kind),
			IsMedia: true,
			Mime:    mimeType,
		})
		return
	}

	chunks, err := h.svc.IngestDocument(r.Context(), tmpPath, mimeType)
	if err != nil {
		slog.Error("document ingestion failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if chunks == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Could not extract text from this file. It might be an image-based PDF. Please upload a media file or a text PDF.",
		})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("Successfully processed %s", header.Filename),
		Chunks:  chunks,
		Summary: h.svc.Summarize(r.Context()),
		IsMedia: false,
	})
}

// HandleQuery answers a question against the current session. Degraded
// generation text is a valid, successful response body.
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	answer := h.svc.Answer(r.Context(), req.Question, req.History)
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Database cleared"})
}

func saveTemp(src io.Reader, name string) (string, error) {
	tmp, err := os.CreateTemp("", "doctwin-*"+filepath.Ext(name))
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

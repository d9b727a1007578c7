package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileExtractor converts a source file (PDF or plain text) into a cleaned
// text blob. PDF extraction is partial-failure tolerant: a page or parser
// error never aborts the whole document, it just stops contributing text.
type FileExtractor struct{}

func New() *FileExtractor { return &FileExtractor{} }

// Extract returns the plain text of the file. An empty (possibly
// whitespace-only) result means the source had no machine-extractable
// text, e.g. a scanned PDF; callers must check for that explicitly.
func (e *FileExtractor) Extract(path, mimeType string) (string, error) {
	var text string
	if isPDF(path, mimeType) {
		text = e.extractPDF(path)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		text = string(data)
	}
	// NUL bytes confuse downstream text handling
	return strings.ReplaceAll(text, "\x00", ""), nil
}

func (e *FileExtractor) extractPDF(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("pdf stat failed", "path", path, "error", err)
		return ""
	}
	file, err := os.Open(path)
	if err != nil {
		slog.Warn("pdf open failed", "path", path, "error", err)
		return ""
	}
	defer file.Close()

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		slog.Warn("pdf parse failed", "path", path, "error", err)
		return ""
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("pdf page extraction failed", "path", path, "page", pageNum, "error", err)
			continue
		}
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func isPDF(path, mimeType string) bool {
	if strings.EqualFold(mimeType, "application/pdf") {
		return true
	}
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

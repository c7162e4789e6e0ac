package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pagetone/pagetone-backend/internal/logger"
)

// DocumentService reads PDF files: page counts and per-page plain text.
// Extraction is best-effort; a page whose text cannot be decoded contributes
// an empty string rather than failing the whole document.
type DocumentService interface {
	PageCount(path string) (int, error)
	// PageTexts returns the plain text of every page in order, index 0 being
	// page 1.
	PageTexts(path string) ([]string, error)
	// ExtractRange concatenates the text of pages start..end inclusive,
	// 1-based.
	ExtractRange(path string, start, end int) (string, error)
}

type documentService struct {
	log *logger.Logger
}

func NewDocumentService(log *logger.Logger) DocumentService {
	return &documentService{log: log.With("service", "DocumentService")}
}

func (s *documentService) PageCount(path string) (int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

func (s *documentService) PageTexts(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		texts = append(texts, s.pageText(reader, i))
	}
	return texts, nil
}

func (s *documentService) ExtractRange(path string, start, end int) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	if start > end {
		return "", fmt.Errorf("invalid page range [%d,%d] for %d pages", start, end, total)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		b.WriteString(s.pageText(reader, i))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *documentService) pageText(reader *pdf.Reader, num int) string {
	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		s.log.Warn("Failed to extract page text", "page", num, "error", err)
		return ""
	}
	return text
}

// Package extractor turns PDF documents on disk into plain text.
package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dslipak/pdf"

	"resumeparser/internal/errors"
)

// PDFExtractor reads the text layer of PDF files. It holds no per-call state
// and is safe for concurrent use.
type PDFExtractor struct {
	logger *errors.Logger
}

// NewPDFExtractor creates a new PDF text extractor
func NewPDFExtractor(logger *errors.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// ExtractText returns the text of every page in order, one newline after each
// page, with surrounding whitespace trimmed. Pages without a text layer add nothing.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && e.logger != nil {
			e.logger.Warn("Failed to close PDF file", "path", path, "error", closeErr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	pages := reader.NumPage()
	emptyPages := 0

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			emptyPages++
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if pageText == "" {
			emptyPages++
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	text = strings.TrimSpace(sb.String())
	if e.logger != nil {
		e.logger.Debug("Extracted PDF text",
			"path", path,
			"pages", pages,
			"empty_pages", emptyPages,
			"characters", len([]rune(text)))
	}
	return text, nil
}

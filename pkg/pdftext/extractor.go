// Package pdftext extracts plain text from PDF files.
package pdftext

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoText is returned when a PDF contains no extractable text, e.g. a scanned image.
var ErrNoText = errors.New("no extractable text")

// Extractor extracts the full text of a PDF file.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// PDFCPUExtractor extracts text from the page content streams using pdfcpu.
type PDFCPUExtractor struct {
	logger *slog.Logger
}

// NewPDFCPUExtractor creates a new extractor. A nil logger uses slog.Default().
func NewPDFCPUExtractor(logger *slog.Logger) *PDFCPUExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUExtractor{logger: logger}
}

// ExtractText returns the text of all pages, one text line per line. Text drawn
// with a font that cannot be mapped to Unicode makes the whole file fail with
// ErrNoText.
func (e *PDFCPUExtractor) ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var text strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			e.logger.Debug("Skipping page content", "file", path, "page", pageNr, "error", err)
			continue
		}
		if r == nil {
			continue
		}

		content, err := io.ReadAll(r)
		if err != nil {
			e.logger.Debug("Skipping page content", "file", path, "page", pageNr, "error", err)
			continue
		}

		fonts, err := pageFonts(ctx, pageNr)
		if err != nil {
			e.logger.Debug("Reading page fonts failed", "file", path, "page", pageNr, "error", err)
		}

		page, err := ContentText(content, fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNr, err)
		}
		if page != "" {
			text.WriteString(page)
			text.WriteString("\n")
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrNoText
	}

	e.logger.Debug("Extracted text", "file", path, "pages", ctx.PageCount, "chars", text.Len())
	return text.String(), nil
}

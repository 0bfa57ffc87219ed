package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of PDF files
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText returns the text of every page, one page per line group
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}

	// The parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf %s: %v", path, r)
		}
	}()

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("create pdf reader: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		buf.WriteString(pageText)
		buf.WriteString("\n")
	}

	return strings.ToValidUTF8(buf.String(), ""), nil
}

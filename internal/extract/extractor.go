// Package extract turns corpus files into plain text and selects passages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when an extractor is called without a path
var ErrEmptyPath = errors.New("empty path")

// TextExtractor returns the plain text of a document
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// AutoExtractor picks an extraction strategy from the file extension:
// .pdf through PDF, .html/.htm through HTMLText, anything else as text
type AutoExtractor struct {
	PDF TextExtractor
}

// NewAutoExtractor returns an extractor with the default PDF backend
func NewAutoExtractor() *AutoExtractor {
	return &AutoExtractor{PDF: NewPDFExtractor()}
}

// ExtractText reads path and returns its text as valid UTF-8
func (a *AutoExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pdf := a.PDF
		if pdf == nil {
			pdf = NewPDFExtractor()
		}
		return pdf.ExtractText(ctx, path)

	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		text, err := HTMLText(f)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
		return text, nil

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return strings.ToValidUTF8(string(data), ""), nil
	}
}

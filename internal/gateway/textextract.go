package gateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnsupportedType is returned for documents this extractor cannot read.
var ErrUnsupportedType = errors.New("unsupported document type")

// PlainTextExtractor implements usecase.TextExtractor for documents whose
// text is already plain (pre-extracted schedules, exports). PDF and image
// recognition are external capabilities; an adapter wrapping one slots in
// behind the same interface.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a new extractor instance.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract reads the file as text. Only text/plain is accepted; a PDF or
// image MIME type reports ErrUnsupportedType so the caller can surface a
// recoverable extraction failure.
func (e *PlainTextExtractor) Extract(ctx context.Context, path, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", path, err)
	}
	return string(data), nil
}

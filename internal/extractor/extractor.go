// Package extractor turns documents on disk into plain text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
)

// Extractor reads the text of one document format
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
	FileExtension() string
}

type Factory struct {
	extractors map[string]Extractor
}

func NewFactory() *Factory {
	f := &Factory{extractors: make(map[string]Extractor)}
	f.Register(NewPDFExtractor())
	f.Register(NewDOCXExtractor())
	return f
}

// Register adds or replaces the extractor for its file extension
func (f *Factory) Register(e Extractor) {
	f.extractors[strings.ToLower(e.FileExtension())] = e
}

func (f *Factory) Create(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := f.extractors[ext]
	if !ok {
		if ext == "" {
			return nil, fmt.Errorf("%w: %s has no file extension", entity.ErrExtraction, path)
		}
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrExtraction, ext)
	}
	return e, nil
}

// Extract reads path and returns its text. Every failure is an ErrExtraction.
func (f *Factory) Extract(ctx context.Context, path string) (string, error) {
	e, err := f.Create(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s does not exist: %w", entity.ErrExtraction, path, err)
		}
		return "", fmt.Errorf("%w: read %s: %w", entity.ErrExtraction, path, err)
	}

	text, err := e.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", entity.ErrExtraction, path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s contains no extractable text", entity.ErrExtraction, path)
	}

	ctxzap.Debug(ctx, "text extracted",
		zap.String("path", path),
		zap.Int("chars", len([]rune(text))),
	)
	return text, nil
}

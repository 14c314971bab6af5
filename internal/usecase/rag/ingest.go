package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/pkg/step"
	"github.com/futig/joke-flows/internal/pkg/validator"
)

// Ingester runs the offline pipeline: extract, chunk, index
type Ingester struct {
	extractor Extractor
	chunker   Chunker
	indexer   *Indexer
	validator *validator.Validator
	index     string
	root      string
}

func NewIngester(
	extractor Extractor,
	chunker Chunker,
	indexer *Indexer,
	validator *validator.Validator,
	index string,
	root string,
) *Ingester {
	return &Ingester{
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		validator: validator,
		index:     index,
		root:      root,
	}
}

// Index returns the name of the index the ingester writes to
func (in *Ingester) Index() string {
	return in.index
}

// Ingest indexes the chunks of one file. Nothing is written if extraction fails.
func (in *Ingester) Ingest(ctx context.Context, path string) error {
	ctx = logger.WithAction(ctx, "ingest")

	path, err := in.validator.IngestPath(path)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", entity.ErrExtraction, path, err)
	}
	if err := in.checkRoot(abs); err != nil {
		return err
	}
	ctx = logger.AddFields(ctx, zap.String("file", abs), zap.String("index", in.index))

	text, err := step.Run(ctx, "extract-text", func(ctx context.Context) (string, error) {
		return in.extractor.Extract(ctx, abs)
	}, attribute.String("file", abs))
	if err != nil {
		return err
	}

	chunks, err := step.Run(ctx, "chunk-it", func(ctx context.Context) ([]entity.Chunk, error) {
		return in.chunker.Chunk(text), nil
	})
	if err != nil {
		return err
	}

	docs := make([]entity.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, entity.NewDocument(c.Text, map[string]any{
			entity.MetadataFile:  abs,
			entity.MetadataChunk: c.Index,
		}))
	}

	if err := in.indexer.Index(ctx, in.index, docs); err != nil {
		return err
	}

	ctxzap.Info(ctx, "file ingested", zap.Int("chunks", len(chunks)))
	return nil
}

// checkRoot rejects files outside the ingest root. An empty root allows any path.
func (in *Ingester) checkRoot(abs string) error {
	if in.root == "" {
		return nil
	}

	root, err := filepath.Abs(in.root)
	if err != nil {
		return fmt.Errorf("%w: resolve ingest root: %w", entity.ErrValidation, err)
	}

	rel, err := filepath.Rel(resolveLinks(root), resolveLinks(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s is outside the ingest root", entity.ErrValidation, abs)
	}
	return nil
}

func resolveLinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

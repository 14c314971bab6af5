package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/metrics"
	"github.com/futig/joke-flows/internal/repository"
)

// Indexer embeds documents and appends them to a vector index
type Indexer struct {
	store    repository.VectorStore
	embedder Embedder
	metrics  *metrics.Metrics
}

func NewIndexer(
	store repository.VectorStore,
	embedder Embedder,
	metrics *metrics.Metrics,
) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		metrics:  metrics,
	}
}

// Index embeds every document and appends the ones that succeeded in a single write.
// If some documents fail the result is an *entity.IndexBatchError.
func (ix *Indexer) Index(ctx context.Context, index string, docs []entity.Document) error {
	if strings.TrimSpace(index) == "" {
		return fmt.Errorf("%w: index name is required", entity.ErrValidation)
	}
	if len(docs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	entries := make([]entity.IndexEntry, 0, len(docs))
	var failed []entity.FailedDocument

	for i, doc := range docs {
		vec, err := ix.embedder.Embed(ctx, doc.Content)
		if err != nil {
			ctxzap.Warn(ctx, "document not embedded", zap.Int("position", i), zap.Error(err))
			failed = append(failed, entity.FailedDocument{Position: i, Source: doc.Source(), Err: err})
			continue
		}

		entries = append(entries, entity.IndexEntry{
			ID:        uuid.New().String(),
			Embedding: vec,
			Document:  entity.NewDocument(doc.Content, doc.Metadata),
			CreatedAt: now,
		})
	}

	if len(entries) > 0 {
		if err := ix.store.Append(ctx, index, ix.embedder.Name(), entries); err != nil {
			return fmt.Errorf("%w: append to %q: %w", entity.ErrIndex, index, err)
		}
		ix.metrics.AddIndexed(index, len(entries))
	}

	ctxzap.Info(ctx, "documents indexed",
		zap.String("index", index),
		zap.Int("indexed", len(entries)),
		zap.Int("failed", len(failed)),
	)

	if len(failed) > 0 {
		return &entity.IndexBatchError{Index: index, Total: len(docs), Failed: failed}
	}
	return nil
}

package rag

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/repository"
)

// Retriever finds the documents closest to a query
type Retriever struct {
	store    repository.VectorStore
	embedder Embedder
}

func NewRetriever(store repository.VectorStore, embedder Embedder) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
	}
}

// Retrieve returns up to opts.K documents by descending cosine similarity
func (r *Retriever) Retrieve(ctx context.Context, index, query string, opts entity.RetrieveOptions) (entity.RetrievalResult, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", entity.ErrValidation, opts.K)
	}

	bound, err := r.store.Embedder(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrRetrieval, err)
	}
	if bound != r.embedder.Name() {
		return nil, fmt.Errorf("%w: %w: index %q uses %q, got %q",
			entity.ErrRetrieval, entity.ErrEmbedderMismatch, index, bound, r.embedder.Name())
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", entity.ErrRetrieval, err)
	}

	result, err := r.store.Search(ctx, index, r.embedder.Name(), vec, opts.K)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrRetrieval, err)
	}

	ctxzap.Debug(ctx, "documents retrieved",
		zap.String("index", index),
		zap.Int("k", opts.K),
		zap.Int("found", len(result)),
	)

	return result, nil
}

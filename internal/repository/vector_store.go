package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/futig/joke-flows/internal/entity"
)

// VectorStore defines the interface for vector index persistence.
// An index is bound to the embedder of its first write.
type VectorStore interface {
	// Append adds entries in order. It fails with entity.ErrEmbedderMismatch
	// if the index already belongs to another embedder.
	Append(ctx context.Context, index, embedder string, entries []entity.IndexEntry) error
	// Search returns the k entries most similar to query, ties in insertion order.
	// Unknown or empty indexes fail with entity.ErrIndexNotFound.
	Search(ctx context.Context, index, embedder string, query []float32, k int) (entity.RetrievalResult, error)
	// Count returns the number of entries, zero for an unknown index
	Count(ctx context.Context, index string) (int, error)
	// Embedder returns the embedder the index is bound to
	Embedder(ctx context.Context, index string) (string, error)
}

func validateIndexName(index string) error {
	if strings.TrimSpace(index) == "" {
		return fmt.Errorf("index name must not be empty")
	}
	if filepath.Base(index) != index || strings.ContainsAny(index, `/\`) {
		return fmt.Errorf("invalid index name %q", index)
	}
	return nil
}

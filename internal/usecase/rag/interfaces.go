package rag

import (
	"context"

	"github.com/futig/joke-flows/internal/entity"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Chunker interface {
	Chunk(text string) []entity.Chunk
}

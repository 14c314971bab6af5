package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/integration/common"
)

var ErrEmptyEmbedding = errors.New("embedding response has no vector")

// Embedder computes text embeddings with the OpenAI embeddings API
type Embedder struct {
	model  string
	client *openai.Client
}

func NewEmbedder(cfg config.OpenAIConfig) *Embedder {
	return &Embedder{
		model:  cfg.EmbeddingModel,
		client: common.NewOpenAIClient(cfg),
	}
}

// Name identifies the embedding space. Indexes are bound to it.
func (e *Embedder) Name() string {
	return "openai/" + e.model
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	ctxzap.Debug(ctx, "text embedded",
		zap.String("model", e.model),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
	)

	return resp.Data[0].Embedding, nil
}

package flow

import (
	"context"
	"encoding/json"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/prompt"
)

type Model interface {
	Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResponse, error)
	Name() string
}

type Tool interface {
	Definition() entity.ToolDefinition
	Call(ctx context.Context, input json.RawMessage) (any, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, index, query string, opts entity.RetrieveOptions) (entity.RetrievalResult, error)
}

type PromptLoader interface {
	Load(name string) (*prompt.Prompt, error)
}

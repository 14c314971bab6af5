package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/integration/common"
)

var ErrEmptyResponse = errors.New("model returned no choices")

// Connector talks to an OpenAI compatible chat completions API
type Connector struct {
	config config.OpenAIConfig
	client *openai.Client
}

func NewConnector(cfg config.OpenAIConfig) *Connector {
	return &Connector{
		config: cfg,
		client: common.NewOpenAIClient(cfg),
	}
}

func (c *Connector) Name() string {
	return "openai/" + c.config.Model
}

// Generate runs one chat completion. Tool calls are returned, not executed.
func (c *Connector) Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResponse, error) {
	chatReq := toChatRequest(c.config.Model, req)

	ctxzap.Info(ctx, "generating via LLM",
		zap.String("model", chatReq.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	out := fromChatChoice(resp.Choices[0])

	ctxzap.Info(ctx, "LLM responded",
		zap.String("finish_reason", out.FinishReason),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return out, nil
}

package joke

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/joke-flows/internal/entity"
)

const (
	ToolName        = "getJoke"
	ToolDescription = "Get a random joke about a specific topic"
)

type jokeSource interface {
	GetJoke(ctx context.Context, topic string) (string, error)
}

// Tool exposes a joke source to the model as the getJoke tool
type Tool struct {
	source jokeSource
}

func NewTool(source jokeSource) *Tool {
	return &Tool{source: source}
}

func (t *Tool) Definition() entity.ToolDefinition {
	return entity.ToolDefinition{
		Name:        ToolName,
		Description: ToolDescription,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"jokeTopic": map[string]any{"type": "string"},
			},
			"required":             []string{"jokeTopic"},
			"additionalProperties": false,
		},
	}
}

// Call runs the tool. Every failure is an ErrTool.
func (t *Tool) Call(ctx context.Context, input json.RawMessage) (any, error) {
	var in entity.JokeInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid input: %w", entity.ErrTool, ToolName, err)
	}

	topic := strings.TrimSpace(in.JokeTopic)
	if topic == "" {
		return nil, fmt.Errorf("%w: %s: jokeTopic must not be blank", entity.ErrTool, ToolName)
	}

	joke, err := t.source.GetJoke(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", entity.ErrTool, ToolName, err)
	}

	return entity.JokeOutput{Joke: joke}, nil
}

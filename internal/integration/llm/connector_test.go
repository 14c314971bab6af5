package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) config.OpenAIConfig {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return config.OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-4o",
		EmbeddingModel: "text-embedding-ada-002",
		RequestTimeout: 5 * time.Second,
	}
}

func TestConnector_GenerateSendsToolsAndParsesToolCalls(t *testing.T) {
	var got map[string]any
	cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "getJoke", "arguments": "{\"jokeTopic\":\"cats\"}"}
					}]
				}
			}],
			"usage": {"total_tokens": 42}
		}`))
	})

	c := NewConnector(cfg)
	resp, err := c.Generate(context.Background(), &entity.GenerateRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "Tell me a joke about cats"}},
		Temperature: 1,
		Tools: []entity.ToolDefinition{{
			Name:        "getJoke",
			Description: "Get a random joke about a specific topic",
			InputSchema: map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", got["model"])
	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "getJoke", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"jokeTopic":"cats"}`, string(resp.ToolCalls[0].Input))
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestConnector_GenerateText(t *testing.T) {
	cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"A cat joke"}}]}`))
	})

	resp, err := NewConnector(cfg).Generate(context.Background(), &entity.GenerateRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "cats"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A cat joke", resp.Text)
	assert.Empty(t, resp.ToolCalls)
}

func TestConnector_GenerateZeroTemperatureAndModelOverride(t *testing.T) {
	var got map[string]any
	cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"deadpan"}}]}`))
	})

	_, err := NewConnector(cfg).Generate(context.Background(), &entity.GenerateRequest{
		Model:       "openai/gpt-4o-mini",
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "cats"}},
		Temperature: 0,
	})
	require.NoError(t, err)

	temperature, ok := got["temperature"]
	require.True(t, ok, "temperature missing from request body")
	assert.InDelta(t, 0, temperature, 1e-6)
	assert.Equal(t, "gpt-4o-mini", got["model"])
}

func TestConnector_GenerateErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		})

		_, err := NewConnector(cfg).Generate(context.Background(), &entity.GenerateRequest{})
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})

		_, err := NewConnector(cfg).Generate(context.Background(), &entity.GenerateRequest{})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestToChatMessage_CarriesToolTurns(t *testing.T) {
	assistant := toChatMessage(entity.Message{
		Role:      entity.RoleAssistant,
		ToolCalls: []entity.ToolCall{{ID: "call_1", Name: "getJoke", Input: json.RawMessage(`{"jokeTopic":"dogs"}`)}},
	})
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, `{"jokeTopic":"dogs"}`, assistant.ToolCalls[0].Function.Arguments)

	tool := toChatMessage(entity.Message{Role: entity.RoleTool, Content: `{"joke":"woof"}`, ToolCallID: "call_1", Name: "getJoke"})
	assert.Equal(t, "call_1", tool.ToolCallID)
	assert.Equal(t, "getJoke", tool.Name)
}

func TestEmbedder_Embed(t *testing.T) {
	var calls atomic.Int32
	cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-ada-002", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	})

	e := NewEmbedder(cfg)
	assert.Equal(t, "openai/text-embedding-ada-002", e.Name())

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	cached := NewCachedEmbedder(e, time.Minute, time.Minute)
	_, err = cached.Embed(context.Background(), "again")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, e.Name(), cached.Name())
}

func TestEmbedder_EmptyVector(t *testing.T) {
	cfg := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := NewEmbedder(cfg).Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

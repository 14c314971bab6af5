package flow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/integration/joke"
	"github.com/futig/joke-flows/internal/integration/llm"
	"github.com/futig/joke-flows/internal/pkg/metrics"
	"github.com/futig/joke-flows/internal/prompt"
)

type scriptedModel struct {
	mu        sync.Mutex
	responses []*entity.GenerateResponse
	err       error
	requests  []*entity.GenerateRequest
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(_ context.Context, req *entity.GenerateRequest) (*entity.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *req
	cp.Messages = append([]entity.Message(nil), req.Messages...)
	m.requests = append(m.requests, &cp)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &entity.GenerateResponse{Text: "fallback"}, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func toolCall(id, topic string) entity.GenerateResponse {
	return entity.GenerateResponse{ToolCalls: []entity.ToolCall{{
		ID:    id,
		Name:  joke.ToolName,
		Input: json.RawMessage(`{"jokeTopic":"` + topic + `"}`),
	}}}
}

type fakeTool struct {
	name  string
	err   error
	calls []json.RawMessage
}

func (t *fakeTool) Definition() entity.ToolDefinition {
	return entity.ToolDefinition{Name: t.name, Description: "fake"}
}

func (t *fakeTool) Call(_ context.Context, input json.RawMessage) (any, error) {
	t.calls = append(t.calls, input)
	if t.err != nil {
		return nil, t.err
	}
	return entity.JokeOutput{Joke: "knock knock"}, nil
}

type fakeRetriever struct {
	result  entity.RetrievalResult
	err     error
	queries []string
}

func (r *fakeRetriever) Retrieve(_ context.Context, _, query string, _ entity.RetrieveOptions) (entity.RetrievalResult, error) {
	r.queries = append(r.queries, query)
	return r.result, r.err
}

func text(s string) entity.FlowRequest {
	return entity.NewFlowRequest(s)
}

func mustFlow(t *testing.T, def Definition, deps Deps) *Flow {
	t.Helper()
	f, err := New(def, deps)
	require.NoError(t, err)
	return f
}

func TestFlow_SimpleJoke(t *testing.T) {
	f := mustFlow(t, DefaultDefinitions("jokes", 1)[0], Deps{Model: llm.NewMockConnector()})

	out, err := f.Run(context.Background(), text("cats"))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "Tell me ajoke about cats")
}

func TestFlow_ValidationSkipsModel(t *testing.T) {
	model := &scriptedModel{}
	f := mustFlow(t, Definition{Name: "f", Template: "{{text}}"}, Deps{Model: model})

	ex := f.Execute(context.Background(), entity.FlowRequest{})
	assert.ErrorIs(t, ex.Err, entity.ErrValidation)
	assert.Equal(t, []State{StateReceived, StateFailed}, ex.History)
	assert.Empty(t, model.requests)
}

func TestFlow_ToolLoop(t *testing.T) {
	first := toolCall("call_1", "cats")
	model := &scriptedModel{responses: []*entity.GenerateResponse{&first, {Text: "Here is a cat joke"}}}
	tool := &fakeTool{name: joke.ToolName}

	f := mustFlow(t, Definition{Name: "f", Template: "Tell me a joke about {{text}}", Temperature: 0.5, Tools: []string{joke.ToolName}},
		Deps{Model: model, Tools: []Tool{tool}, Metrics: metrics.New()})

	ex := f.Execute(context.Background(), text("cats"))
	require.NoError(t, ex.Err)
	assert.Equal(t, "Here is a cat joke", ex.Output)
	assert.Equal(t, []State{StateReceived, StateGenerating, StateCompleted}, ex.History)
	assert.Equal(t, 1, ex.Rounds)
	require.Len(t, tool.calls, 1)
	assert.JSONEq(t, `{"jokeTopic":"cats"}`, string(tool.calls[0]))

	require.Len(t, model.requests, 2)
	assert.Equal(t, float32(0.5), model.requests[0].Temperature)
	require.Len(t, model.requests[0].Tools, 1)

	second := model.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, entity.RoleAssistant, second[1].Role)
	assert.Equal(t, entity.RoleTool, second[2].Role)
	assert.Equal(t, "call_1", second[2].ToolCallID)
	assert.JSONEq(t, `{"joke":"knock knock"}`, second[2].Content)
}

func TestFlow_ToolFailureAborts(t *testing.T) {
	call := toolCall("call_1", " ")
	model := &scriptedModel{responses: []*entity.GenerateResponse{&call, {Text: "never"}}}

	f := mustFlow(t, DefaultDefinitions("jokes", 1)[1], Deps{
		Model: model,
		Tools: []Tool{joke.NewTool(joke.NewMockConnector())},
	})

	ex := f.Execute(context.Background(), text("cats"))
	assert.ErrorIs(t, ex.Err, entity.ErrTool)
	assert.Equal(t, StateFailed, ex.State)
	assert.Empty(t, ex.Output)
	assert.Len(t, model.requests, 1)
}

func TestFlow_ToolErrorWithoutKindIsWrapped(t *testing.T) {
	call := toolCall("call_1", "cats")
	model := &scriptedModel{responses: []*entity.GenerateResponse{&call}}
	tool := &fakeTool{name: joke.ToolName, err: errors.New("boom")}

	f := mustFlow(t, Definition{Name: "f", Template: "{{text}}", Tools: []string{joke.ToolName}}, Deps{Model: model, Tools: []Tool{tool}})

	_, err := f.Run(context.Background(), text("cats"))
	assert.ErrorIs(t, err, entity.ErrTool)
}

func TestFlow_UnknownToolCall(t *testing.T) {
	model := &scriptedModel{responses: []*entity.GenerateResponse{{
		ToolCalls: []entity.ToolCall{{ID: "1", Name: "getWeather", Input: json.RawMessage(`{}`)}},
	}}}
	f := mustFlow(t, Definition{Name: "f", Template: "{{text}}"}, Deps{Model: model})

	_, err := f.Run(context.Background(), text("cats"))
	assert.ErrorIs(t, err, entity.ErrTool)
}

func TestFlow_ToolRoundsBounded(t *testing.T) {
	call := toolCall("call_1", "cats")
	model := &scriptedModel{responses: []*entity.GenerateResponse{&call}}
	tool := &fakeTool{name: joke.ToolName}

	f := mustFlow(t, Definition{Name: "f", Template: "{{text}}", Tools: []string{joke.ToolName}},
		Deps{Model: model, Tools: []Tool{tool}, MaxToolRounds: 2})

	ex := f.Execute(context.Background(), text("cats"))
	assert.ErrorIs(t, ex.Err, entity.ErrGeneration)
	assert.Equal(t, 2, ex.Rounds)
	assert.Len(t, tool.calls, 2)
	assert.Len(t, model.requests, 3)
}

func TestFlow_GenerationErrors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		f := mustFlow(t, Definition{Name: "f", Template: "{{text}}"}, Deps{Model: &scriptedModel{err: errors.New("503")}})
		_, err := f.Run(context.Background(), text("cats"))
		assert.ErrorIs(t, err, entity.ErrGeneration)
	})

	t.Run("empty text", func(t *testing.T) {
		model := &scriptedModel{responses: []*entity.GenerateResponse{{Text: "  "}}}
		f := mustFlow(t, Definition{Name: "f", Template: "{{text}}"}, Deps{Model: model})
		_, err := f.Run(context.Background(), text("cats"))
		assert.ErrorIs(t, err, entity.ErrGeneration)
	})
}

func TestFlow_ContextGathering(t *testing.T) {
	retriever := &fakeRetriever{result: entity.RetrievalResult{
		{Document: entity.NewDocument("Rule of three", nil), Score: 0.9},
		{Document: entity.NewDocument("Keep it short", nil), Score: 0.8},
	}}
	call := toolCall("call_1", "cats")
	model := &scriptedModel{responses: []*entity.GenerateResponse{&call, {Text: "done"}}}

	def := DefaultDefinitions("jokes", 1)[2]
	f := mustFlow(t, def, Deps{Model: model, Retriever: retriever, Tools: []Tool{&fakeTool{name: joke.ToolName}}})

	ex := f.Execute(context.Background(), text("cats"))
	require.NoError(t, ex.Err)
	assert.Equal(t, []State{StateReceived, StateContextGathering, StateGenerating, StateCompleted}, ex.History)
	assert.Equal(t, []string{"Joke structure best practices"}, retriever.queries)
	assert.Len(t, ex.Context, 2)

	want := "Tell me a joke about cats. Create a joke structure that follows best practices and explain which ones you used." +
		"\n\nUse the following information to complete your task:\n\n- [0]: Rule of three\n- [1]: Keep it short\n"
	assert.Equal(t, want, model.requests[0].Messages[0].Content)
	assert.Equal(t, want, model.requests[1].Messages[0].Content)
}

func TestFlow_ContextQueryDefaultsToText(t *testing.T) {
	retriever := &fakeRetriever{result: entity.RetrievalResult{{Document: entity.NewDocument("doc", nil)}}}
	f := mustFlow(t, Definition{Name: "f", Template: "{{text}}", Retrieval: &RetrievalConfig{Index: "jokes", K: 1}},
		Deps{Model: &scriptedModel{}, Retriever: retriever})

	_, err := f.Run(context.Background(), text("penguins"))
	require.NoError(t, err)
	assert.Equal(t, []string{"penguins"}, retriever.queries)
}

func TestFlow_RetrievalFailure(t *testing.T) {
	model := &scriptedModel{}
	retriever := &fakeRetriever{err: entity.ErrRetrieval}
	f := mustFlow(t, DefaultDefinitions("jokes", 1)[2], Deps{Model: model, Retriever: retriever, Tools: []Tool{&fakeTool{name: joke.ToolName}}})

	ex := f.Execute(context.Background(), text("cats"))
	assert.ErrorIs(t, ex.Err, entity.ErrRetrieval)
	assert.Equal(t, []State{StateReceived, StateContextGathering, StateFailed}, ex.History)
	assert.Empty(t, model.requests)
}

func TestFlow_PromptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "joke.prompt"), []byte(
		"---\nmodel: openai/gpt-4o-mini\nconfig:\n  temperature: 0.3\ntools: [getJoke]\n---\nJoke about {{text}}\n"), 0o644))

	model := &scriptedModel{responses: []*entity.GenerateResponse{{Text: "ok"}}}
	f := mustFlow(t, DefaultDefinitions("jokes", 1)[3], Deps{
		Model:   model,
		Prompts: prompt.NewLoader(dir),
		Tools:   []Tool{&fakeTool{name: joke.ToolName}},
	})
	assert.Equal(t, []string{joke.ToolName}, f.Info().Tools)

	_, err := f.Run(context.Background(), text("owls"))
	require.NoError(t, err)
	assert.Equal(t, "Joke about owls", model.requests[0].Messages[0].Content)
	assert.InDelta(t, 0.3, model.requests[0].Temperature, 1e-6)
	assert.Equal(t, "openai/gpt-4o-mini", model.requests[0].Model)
}

func TestNew_InvalidDefinitions(t *testing.T) {
	model := &scriptedModel{}
	tests := []struct {
		name string
		def  Definition
		deps Deps
	}{
		{name: "no name", def: Definition{Template: "x"}, deps: Deps{Model: model}},
		{name: "no prompt", def: Definition{Name: "f"}, deps: Deps{Model: model}},
		{name: "both prompts", def: Definition{Name: "f", Template: "x", PromptFile: "y"}, deps: Deps{Model: model}},
		{name: "no model", def: Definition{Name: "f", Template: "x"}},
		{name: "unknown tool", def: Definition{Name: "f", Template: "x", Tools: []string{"nope"}}, deps: Deps{Model: model}},
		{name: "retrieval without retriever", def: Definition{Name: "f", Template: "x", Retrieval: &RetrievalConfig{Index: "i", K: 1}}, deps: Deps{Model: model}},
		{name: "bad k", def: Definition{Name: "f", Template: "x", Retrieval: &RetrievalConfig{Index: "i"}}, deps: Deps{Model: model, Retriever: &fakeRetriever{}}},
		{name: "missing prompt file", def: Definition{Name: "f", PromptFile: "nope"}, deps: Deps{Model: model, Prompts: prompt.NewLoader(t.TempDir())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def, tt.deps)
			assert.Error(t, err)
		})
	}
}

func TestWithContext_AppendsToLastUserMessage(t *testing.T) {
	msgs := []entity.Message{
		{Role: entity.RoleUser, Content: "first"},
		{Role: entity.RoleAssistant, Content: "reply"},
		{Role: entity.RoleUser, Content: "second"},
	}

	out := withContext(msgs, []entity.Document{entity.NewDocument("doc", nil)})
	assert.Equal(t, "first", out[0].Content)
	assert.Equal(t, "second\n\nUse the following information to complete your task:\n\n- [0]: doc\n", out[2].Content)
	assert.Equal(t, "second", msgs[2].Content)

	assert.Equal(t, msgs, withContext(msgs, nil))
}

func TestState_IllegalTransitionPanics(t *testing.T) {
	ex := newExecution("f")
	ex.to(StateGenerating)
	ex.complete("ok")
	assert.Panics(t, func() { ex.to(StateGenerating) })
	assert.Equal(t, "completed", ex.State.String())
}

package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/pkg/metrics"
	"github.com/futig/joke-flows/internal/pkg/step"
	"github.com/futig/joke-flows/internal/pkg/validator"
	"github.com/futig/joke-flows/internal/prompt"
)

// Deps are shared by every flow
type Deps struct {
	Model         Model
	Tools         []Tool
	Retriever     Retriever
	Prompts       PromptLoader
	Validator     *validator.Validator
	Metrics       *metrics.Metrics
	MaxToolRounds int
}

// Flow is a compiled Definition
type Flow struct {
	def         Definition
	prompt      *prompt.Prompt
	temperature float32
	tools       map[string]Tool
	toolDefs    []entity.ToolDefinition
	model       Model
	modelName   string
	retriever   Retriever
	validator   *validator.Validator
	metrics     *metrics.Metrics
	maxRounds   int
}

// New resolves the prompt, tools and retriever of def
func New(def Definition, deps Deps) (*Flow, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("flow %q: model is required", def.Name)
	}

	f := &Flow{
		def:         def,
		temperature: def.Temperature,
		tools:       make(map[string]Tool),
		model:       deps.Model,
		retriever:   deps.Retriever,
		validator:   deps.Validator,
		metrics:     deps.Metrics,
		maxRounds:   deps.MaxToolRounds,
	}
	if f.validator == nil {
		f.validator = validator.New()
	}
	if f.maxRounds <= 0 {
		f.maxRounds = DefaultMaxToolRounds
	}

	toolNames := def.Tools
	if def.Template != "" {
		p, err := prompt.Parse(def.Name, def.Template)
		if err != nil {
			return nil, err
		}
		f.prompt = p
	} else {
		if deps.Prompts == nil {
			return nil, fmt.Errorf("flow %q: prompt loader is required", def.Name)
		}
		p, err := deps.Prompts.Load(def.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", def.Name, err)
		}
		f.prompt = p
		if p.Temperature != nil {
			f.temperature = *p.Temperature
		}
		f.modelName = p.Model
		if len(toolNames) == 0 {
			toolNames = p.Tools
		}
	}

	available := make(map[string]Tool, len(deps.Tools))
	for _, t := range deps.Tools {
		available[t.Definition().Name] = t
	}
	for _, name := range toolNames {
		t, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("flow %q: unknown tool %q", def.Name, name)
		}
		f.tools[name] = t
		f.toolDefs = append(f.toolDefs, t.Definition())
	}

	if def.Retrieval != nil && deps.Retriever == nil {
		return nil, fmt.Errorf("flow %q: retriever is required", def.Name)
	}

	return f, nil
}

func (f *Flow) Name() string {
	return f.def.Name
}

func (f *Flow) Info() entity.FlowInfo {
	info := entity.FlowInfo{Name: f.def.Name}
	for _, d := range f.toolDefs {
		info.Tools = append(info.Tools, d.Name)
	}
	if f.def.Retrieval != nil {
		info.Retrieval = f.def.Retrieval.Index
	}
	return info
}

// Run executes the flow and returns the generated text
func (f *Flow) Run(ctx context.Context, req entity.FlowRequest) (string, error) {
	ex := f.Execute(ctx, req)
	return ex.Output, ex.Err
}

// Execute drives the flow through its states and returns the full record
func (f *Flow) Execute(ctx context.Context, req entity.FlowRequest) *Execution {
	started := time.Now()
	ctx = logger.WithAction(ctx, "flow")
	ctx = logger.AddFields(ctx, zap.String("flow", f.def.Name))

	ex := f.execute(ctx, req)

	f.metrics.ObserveFlow(f.def.Name, started, ex.Err)
	if ex.Err != nil {
		ctxzap.Error(ctx, "flow failed",
			zap.String("kind", string(entity.KindOf(ex.Err))),
			zap.Stringers("states", ex.History),
			zap.Error(ex.Err),
		)
	} else {
		ctxzap.Info(ctx, "flow completed",
			zap.Int("rounds", ex.Rounds),
			zap.Int("tool_calls", len(ex.ToolCalls)),
			zap.Duration("duration", time.Since(started)),
		)
	}
	return ex
}

func (f *Flow) execute(ctx context.Context, req entity.FlowRequest) *Execution {
	ex := newExecution(f.def.Name)

	if err := f.validator.FlowRequest(&req); err != nil {
		return ex.fail(err)
	}
	text := *req.Text

	rendered, err := f.prompt.Render(map[string]any{"text": text})
	if err != nil {
		return ex.fail(fmt.Errorf("%w: %w", entity.ErrGeneration, err))
	}
	messages := []entity.Message{{Role: entity.RoleUser, Content: rendered}}

	if f.def.Retrieval != nil {
		ex.to(StateContextGathering)

		docs, err := f.gatherContext(ctx, text)
		if err != nil {
			return ex.fail(err)
		}
		ex.Context = docs
		messages = withContext(messages, docs.Documents())
	}

	ex.to(StateGenerating)
	out, err := f.generate(ctx, ex, messages)
	if err != nil {
		return ex.fail(err)
	}
	return ex.complete(out)
}

func (f *Flow) gatherContext(ctx context.Context, text string) (entity.RetrievalResult, error) {
	rc := f.def.Retrieval
	query := rc.Query
	if query == "" {
		query = text
	}

	return step.Run(ctx, "retrieve", func(ctx context.Context) (entity.RetrievalResult, error) {
		return f.retriever.Retrieve(ctx, rc.Index, query, entity.RetrieveOptions{K: rc.K})
	}, attribute.String("index", rc.Index), attribute.Int("k", rc.K))
}

// generate calls the model until it answers without tool calls
func (f *Flow) generate(ctx context.Context, ex *Execution, messages []entity.Message) (string, error) {
	for round := 0; ; round++ {
		resp, err := step.Run(ctx, "generate", func(ctx context.Context) (*entity.GenerateResponse, error) {
			return f.model.Generate(ctx, &entity.GenerateRequest{
				Model:       f.modelName,
				Messages:    messages,
				Temperature: f.temperature,
				Tools:       f.toolDefs,
			})
		}, attribute.String("model", f.model.Name()), attribute.Int("round", round))
		if err != nil {
			return "", fmt.Errorf("%w: %w", entity.ErrGeneration, err)
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Text) == "" {
				return "", fmt.Errorf("%w: model returned empty text", entity.ErrGeneration)
			}
			return resp.Text, nil
		}

		if round >= f.maxRounds {
			return "", fmt.Errorf("%w: exceeded %d tool rounds", entity.ErrGeneration, f.maxRounds)
		}
		ex.Rounds++

		messages = append(messages, entity.Message{
			Role:      entity.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			ex.ToolCalls = append(ex.ToolCalls, call)

			result, err := f.callTool(ctx, call)
			if err != nil {
				return "", err
			}

			payload, err := json.Marshal(result.Output)
			if err != nil {
				return "", fmt.Errorf("%w: %s: encode output: %w", entity.ErrTool, call.Name, err)
			}
			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				Content:    string(payload),
				ToolCallID: result.CallID,
				Name:       result.Name,
			})
		}
	}
}

func (f *Flow) callTool(ctx context.Context, call entity.ToolCall) (*entity.ToolResult, error) {
	tool, ok := f.tools[call.Name]
	if !ok {
		err := fmt.Errorf("%w: unknown tool %q", entity.ErrTool, call.Name)
		f.metrics.ObserveTool(call.Name, err)
		return nil, err
	}

	out, err := step.Run(ctx, call.Name, func(ctx context.Context) (any, error) {
		return tool.Call(ctx, call.Input)
	}, attribute.String("tool_call_id", call.ID))
	f.metrics.ObserveTool(call.Name, err)
	if err != nil {
		if !errors.Is(err, entity.ErrTool) {
			err = fmt.Errorf("%w: %s: %w", entity.ErrTool, call.Name, err)
		}
		return nil, err
	}

	return &entity.ToolResult{CallID: call.ID, Name: call.Name, Output: out}, nil
}

package llm

import (
	"encoding/json"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/futig/joke-flows/internal/entity"
)

// modelPrefix is how prompt files name models served by this connector
const modelPrefix = "openai/"

func toChatRequest(model string, req *entity.GenerateRequest) openai.ChatCompletionRequest {
	if req.Model != "" {
		model = strings.TrimPrefix(req.Model, modelPrefix)
	}

	// omitempty on Temperature drops 0, which the API reads as its default of 1
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, toChatMessage(msg))
	}

	out := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}

	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	return out
}

func toChatMessage(msg entity.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       msg.Role,
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
		Name:       msg.Name,
	}

	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: string(call.Input),
			},
		})
	}

	return out
}

func fromChatChoice(choice openai.ChatCompletionChoice) *entity.GenerateResponse {
	out := &entity.GenerateResponse{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}

	for _, call := range choice.Message.ToolCalls {
		args := call.Function.Arguments
		if args == "" {
			args = "{}"
		}
		out.ToolCalls = append(out.ToolCalls, entity.ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: json.RawMessage(args),
		})
	}

	return out
}

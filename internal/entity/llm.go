package entity

import "encoding/json"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a model conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolDefinition describes a tool to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is fed back to the model before it resumes
type ToolResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Output any    `json:"output"`
}

// GenerateRequest is a single model call
type GenerateRequest struct {
	// Model overrides the connector's configured model when set
	Model       string           `json:"model,omitempty"`
	Messages    []Message        `json:"messages"`
	Temperature float32          `json:"temperature"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
}

// GenerateResponse is the model's answer: final text, tool calls, or both
type GenerateResponse struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

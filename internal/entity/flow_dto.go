package entity

import "encoding/json"

// FlowRequest is the input schema shared by all query flows
type FlowRequest struct {
	Text *string `json:"text" validate:"required"`
}

// NewFlowRequest builds a request from plain text
func NewFlowRequest(text string) FlowRequest {
	return FlowRequest{Text: &text}
}

// CallableRequest wraps flow input the way callable functions do
type CallableRequest struct {
	Data json.RawMessage `json:"data"`
}

// CallableResponse wraps flow output
type CallableResponse struct {
	Result any `json:"result"`
}

// CallableError is the error body of a failed flow call
type CallableError struct {
	Status  ErrorKind `json:"status"`
	Message string    `json:"message"`
}

// CallableErrorResponse wraps CallableError
type CallableErrorResponse struct {
	Error CallableError `json:"error"`
}

// FlowInfo describes a registered flow
type FlowInfo struct {
	Name      string   `json:"name"`
	Tools     []string `json:"tools,omitempty"`
	Retrieval string   `json:"retrieval_index,omitempty"`
}

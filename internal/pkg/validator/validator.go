package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/futig/joke-flows/internal/entity"
)

// Validator checks flow inputs against their schemas before any model call
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// FlowRequest validates an already decoded request
func (v *Validator) FlowRequest(req *entity.FlowRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", entity.ErrValidation, describe(err))
	}
	return nil
}

// DecodeFlowRequest decodes the callable "data" payload into a FlowRequest
func (v *Validator) DecodeFlowRequest(data json.RawMessage) (entity.FlowRequest, error) {
	var req entity.FlowRequest
	if isNull(data) {
		return req, fmt.Errorf("%w: data must be an object with a text field", entity.ErrValidation)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %s", entity.ErrValidation, describe(err))
	}
	if err := v.FlowRequest(&req); err != nil {
		return req, err
	}
	return req, nil
}

// DecodeIngestPath decodes the ingester payload, a JSON string with a file path
func (v *Validator) DecodeIngestPath(data json.RawMessage) (string, error) {
	if isNull(data) {
		return "", fmt.Errorf("%w: data must be a file path", entity.ErrValidation)
	}
	var path string
	if err := json.Unmarshal(data, &path); err != nil {
		return "", fmt.Errorf("%w: data must be a file path: %s", entity.ErrValidation, describe(err))
	}
	return v.IngestPath(path)
}

// IngestPath rejects blank paths
func (v *Validator) IngestPath(path string) (string, error) {
	if err := v.validate.Var(strings.TrimSpace(path), "required"); err != nil {
		return "", fmt.Errorf("%w: file path is required", entity.ErrValidation)
	}
	return path, nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return strings.Join(msgs, ", ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}

	return err.Error()
}

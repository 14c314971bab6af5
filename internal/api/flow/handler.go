package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/pkg/response"
	"github.com/futig/joke-flows/internal/pkg/validator"
)

const maxBodySize = 1 << 20

type Handler struct {
	flows     FlowRunner
	ingester  Ingester
	validator *validator.Validator
}

func NewHandler(
	flows FlowRunner,
	ingester Ingester,
	validator *validator.Validator,
) *Handler {
	return &Handler{
		flows:     flows,
		ingester:  ingester,
		validator: validator,
	}
}

// ListFlows handles GET /flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows := h.flows.List()
	names := make([]string, 0, len(flows))
	for _, f := range flows {
		names = append(names, f.Name)
	}
	response.Result(w, names)
}

// RunFlow handles POST /flows/{name}
func (h *Handler) RunFlow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logger.AddFields(logger.WithAction(r.Context(), "RunFlow"), zap.String("flow", name))

	body, err := h.decodeCallable(w, r)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	req, err := h.validator.DecodeFlowRequest(body.Data)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	out, err := h.flows.Run(ctx, name, req)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	response.Result(w, out)
}

// Ingest handles POST /flows/ingester
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ingest")

	body, err := h.decodeCallable(w, r)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	path, err := h.validator.DecodeIngestPath(body.Data)
	if err != nil {
		h.respondError(ctx, w, err)
		return
	}

	if err := h.ingester.Ingest(ctx, path); err != nil {
		h.respondError(ctx, w, err)
		return
	}

	response.Result(w, nil)
}

func (h *Handler) decodeCallable(w http.ResponseWriter, r *http.Request) (*entity.CallableRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var body entity.CallableRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %w", entity.ErrValidation, err)
	}
	return &body, nil
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, kind, message := toHTTPError(err)
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, "request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		ctxzap.Warn(ctx, "request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	response.Error(w, status, kind, message)
}

package flow

import (
	"context"

	"github.com/futig/joke-flows/internal/entity"
)

type FlowRunner interface {
	Run(ctx context.Context, name string, req entity.FlowRequest) (string, error)
	List() []entity.FlowInfo
}

type Ingester interface {
	Ingest(ctx context.Context, path string) error
}

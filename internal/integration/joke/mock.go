package joke

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector returns a canned joke for any topic
type MockConnector struct{}

func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) GetJoke(ctx context.Context, topic string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] fetching joke", zap.String("topic", topic))
	return "I told a joke about " + topic + ".\nIt did not land.", nil
}

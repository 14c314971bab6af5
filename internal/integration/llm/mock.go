package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/entity"
)

// MockConnector answers without calling a model. It never requests tools.
type MockConnector struct{}

func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) Name() string {
	return "mock"
}

func (m *MockConnector) Generate(ctx context.Context, req *entity.GenerateRequest) (*entity.GenerateResponse, error) {
	ctxzap.Info(ctx, "[MOCK] generating via LLM", zap.Int("messages", len(req.Messages)))

	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == entity.RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}
	if line, _, ok := strings.Cut(prompt, "\n"); ok {
		prompt = line
	}

	return &entity.GenerateResponse{
		Text:         "[MOCK] Why did the developer go broke? Because they used up all their cache. (" + prompt + ")",
		FinishReason: "stop",
	}, nil
}

const mockDimensions = 64

// MockEmbedder hashes words into a fixed size unit vector.
// Texts that share words get similar vectors, identical texts identical ones.
type MockEmbedder struct{}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

func (m *MockEmbedder) Name() string {
	return "mock-embedder"
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, mockDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%mockDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

package llm

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/joke-flows/internal/entity"
)

func TestMockEmbedder_IsDeterministicUnitVector(t *testing.T) {
	e := NewMockEmbedder()

	a, err := e.Embed(context.Background(), "Why did the chicken cross the road?")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "why did the chicken cross the road")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, mockDimensions)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockConnector_Generate(t *testing.T) {
	resp, err := NewMockConnector().Generate(context.Background(), &entity.GenerateRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "Tell me a joke about cats\n\ncontext"}},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Tell me a joke about cats")
	assert.NotContains(t, resp.Text, "context")
	assert.Empty(t, resp.ToolCalls)
}

type failingEmbedder struct{ calls int }

func (f *failingEmbedder) Name() string { return "failing" }

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	return nil, errors.New("unavailable")
}

func TestCachedEmbedder_DoesNotCacheErrors(t *testing.T) {
	next := &failingEmbedder{}
	c := NewCachedEmbedder(next, time.Minute, time.Minute)

	_, err := c.Embed(context.Background(), "x")
	require.Error(t, err)
	_, err = c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
}

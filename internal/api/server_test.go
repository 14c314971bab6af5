package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	flowapi "github.com/futig/joke-flows/internal/api/flow"
	"github.com/futig/joke-flows/internal/api/middleware"
	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/metrics"
	"github.com/futig/joke-flows/internal/pkg/validator"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, name string, req entity.FlowRequest) (string, error) {
	return name + ": " + *req.Text, nil
}

func (echoRunner) List() []entity.FlowInfo { return []entity.FlowInfo{{Name: "simpleJoke"}} }

type noopIngester struct{}

func (noopIngester) Ingest(context.Context, string) error { return nil }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	auth, err := middleware.Auth(config.AuthConfig{Policy: config.AuthPolicyToken, Token: "t0ken"})
	require.NoError(t, err)

	h := flowapi.NewHandler(echoRunner{}, noopIngester{}, validator.New())
	return SetupRouter(h, auth, metrics.New(), zap.NewNop())
}

func TestRouter_PublicEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_FlowsRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	body := `{"data":{"text":"dogs"}}`

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/flows/simpleJoke", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), string(entity.KindUnauthenticated))

	req := httptest.NewRequest(http.MethodPost, "/flows/simpleJoke", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer t0ken")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"simpleJoke: dogs"}`, rec.Body.String())
}

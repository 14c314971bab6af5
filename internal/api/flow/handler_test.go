package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/validator"
)

type fakeRunner struct {
	out     string
	err     error
	gotName string
	gotText string
}

func (f *fakeRunner) Run(_ context.Context, name string, req entity.FlowRequest) (string, error) {
	f.gotName = name
	if req.Text != nil {
		f.gotText = *req.Text
	}
	return f.out, f.err
}

func (f *fakeRunner) List() []entity.FlowInfo {
	return []entity.FlowInfo{{Name: "myFlow"}, {Name: "simpleJoke"}}
}

type fakeIngester struct {
	path string
	err  error
}

func (f *fakeIngester) Ingest(_ context.Context, path string) error {
	f.path = path
	return f.err
}

func newRouter(runner *fakeRunner, ingester *fakeIngester) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(runner, ingester, validator.New()))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) entity.CallableError {
	t.Helper()
	var body entity.CallableErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestRunFlow(t *testing.T) {
	runner := &fakeRunner{out: "a chicken joke"}
	rec := do(t, newRouter(runner, &fakeIngester{}), http.MethodPost, "/flows/simpleJoke", `{"data":{"text":"chickens"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"a chicken joke"}`, rec.Body.String())
	assert.Equal(t, "simpleJoke", runner.gotName)
	assert.Equal(t, "chickens", runner.gotText)
}

func TestRunFlow_InvalidInput(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{"data":`,
		"null data":    `{"data":null}`,
		"missing data": `{}`,
		"missing text": `{"data":{}}`,
		"wrong type":   `{"data":{"text":42}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{}
			rec := do(t, newRouter(runner, &fakeIngester{}), http.MethodPost, "/flows/simpleJoke", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, entity.KindValidation, errorBody(t, rec).Status)
			assert.Empty(t, runner.gotName, "flow must not run")
		})
	}
}

func TestRunFlow_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   entity.ErrorKind
	}{
		{"not found", fmt.Errorf("%w: nope", entity.ErrFlowNotFound), http.StatusNotFound, entity.KindNotFound},
		{"tool", fmt.Errorf("%w: joke api down", entity.ErrTool), http.StatusBadGateway, entity.KindTool},
		{"generation", fmt.Errorf("%w: empty output", entity.ErrGeneration), http.StatusBadGateway, entity.KindGeneration},
		{"missing index", fmt.Errorf("%w: %w", entity.ErrRetrieval, entity.ErrIndexNotFound), http.StatusNotFound, entity.KindRetrieval},
		{"retrieval", fmt.Errorf("%w: embed failed", entity.ErrRetrieval), http.StatusInternalServerError, entity.KindRetrieval},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError, entity.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{err: tc.err}
			rec := do(t, newRouter(runner, &fakeIngester{}), http.MethodPost, "/flows/myFlow", `{"data":{"text":"cats"}}`)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, errorBody(t, rec).Status)
		})
	}
}

func TestRunFlow_InternalMessageHidden(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("dial tcp 10.0.0.1:5432: refused")}
	rec := do(t, newRouter(runner, &fakeIngester{}), http.MethodPost, "/flows/myFlow", `{"data":{"text":"cats"}}`)

	assert.Equal(t, "internal error", errorBody(t, rec).Message)
}

func TestIngest(t *testing.T) {
	ingester := &fakeIngester{}
	rec := do(t, newRouter(&fakeRunner{}, ingester), http.MethodPost, "/flows/ingester", `{"data":"docs/jokes.pdf"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":null}`, rec.Body.String())
	assert.Equal(t, "docs/jokes.pdf", ingester.path)
}

func TestIngest_Errors(t *testing.T) {
	t.Run("blank path", func(t *testing.T) {
		ingester := &fakeIngester{}
		rec := do(t, newRouter(&fakeRunner{}, ingester), http.MethodPost, "/flows/ingester", `{"data":"  "}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, ingester.path)
	})

	t.Run("extraction", func(t *testing.T) {
		ingester := &fakeIngester{err: fmt.Errorf("%w: unsupported file type", entity.ErrExtraction)}
		rec := do(t, newRouter(&fakeRunner{}, ingester), http.MethodPost, "/flows/ingester", `{"data":"notes.txt"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, entity.KindExtraction, errorBody(t, rec).Status)
	})

	t.Run("index", func(t *testing.T) {
		ingester := &fakeIngester{err: &entity.IndexBatchError{Index: "jokes", Total: 2, Failed: []entity.FailedDocument{{Position: 1, Err: fmt.Errorf("embed")}}}}
		rec := do(t, newRouter(&fakeRunner{}, ingester), http.MethodPost, "/flows/ingester", `{"data":"a.pdf"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, entity.KindIndex, errorBody(t, rec).Status)
	})
}

func TestListFlows(t *testing.T) {
	rec := do(t, newRouter(&fakeRunner{}, &fakeIngester{}), http.MethodGet, "/flows", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":["myFlow","simpleJoke"]}`, rec.Body.String())
}

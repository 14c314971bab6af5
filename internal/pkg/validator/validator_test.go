package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/joke-flows/internal/entity"
)

func TestDecodeFlowRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "valid", data: `{"text":"cats"}`, want: "cats"},
		{name: "empty text is allowed", data: `{"text":""}`, want: ""},
		{name: "extra fields ignored", data: `{"text":"cats","x":1}`, want: "cats"},
		{name: "missing text", data: `{}`, wantErr: true},
		{name: "wrong type", data: `{"text":42}`, wantErr: true},
		{name: "not an object", data: `"cats"`, wantErr: true},
		{name: "null", data: `null`, wantErr: true},
		{name: "absent", data: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := v.DecodeFlowRequest(json.RawMessage(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, entity.ErrValidation)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, req.Text)
			assert.Equal(t, tt.want, *req.Text)
		})
	}
}

func TestDecodeIngestPath(t *testing.T) {
	v := New()

	path, err := v.DecodeIngestPath(json.RawMessage(`"docs/jokes.pdf"`))
	require.NoError(t, err)
	assert.Equal(t, "docs/jokes.pdf", path)

	for _, data := range []string{`"   "`, `null`, `{"path":"x"}`, ``} {
		_, err := v.DecodeIngestPath(json.RawMessage(data))
		assert.ErrorIs(t, err, entity.ErrValidation, data)
	}
}

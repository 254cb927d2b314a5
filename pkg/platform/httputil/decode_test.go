package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vaultflow/pkg/domain-errors"
)

type plainRequest struct {
	DefinitionID string `json:"definition_id"`
}

type strictRequest struct {
	DefinitionID string `json:"definition_id"`
}

func (r *strictRequest) StrictDecoding() {}

type preparedRequest struct {
	DefinitionID string `json:"definition_id"`
	sanitized    bool
	normalized   bool
}

func (r *preparedRequest) Sanitize()  { r.sanitized = true }
func (r *preparedRequest) Normalize() { r.normalized = true }
func (r *preparedRequest) Validate() error {
	if r.DefinitionID == "" {
		return errors.New("definition_id is required")
	}
	return nil
}

type domainErrorRequest struct {
	DefinitionID string `json:"definition_id"`
}

func (r *domainErrorRequest) Validate() error {
	if r.DefinitionID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "definition_id is required")
	}
	return nil
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("decodes body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":"webinarRegistrationVC"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[plainRequest](w, req, logger, ctx, "rid")

		require.True(t, ok)
		assert.Equal(t, "webinarRegistrationVC", result.DefinitionID)
	})

	t.Run("tolerates unknown fields by default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":"x","extra":1}`))
		_, ok := DecodeJSON[plainRequest](httptest.NewRecorder(), req, logger, ctx, "rid")
		assert.True(t, ok)
	})

	t.Run("strict types reject unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":"x","extra":1}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[strictRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeErr(t, w).Error)
	})

	t.Run("malformed and empty bodies return 400", func(t *testing.T) {
		for _, body := range []string{`{invalid json}`, ``} {
			w := httptest.NewRecorder()
			_, ok := DecodeJSON[plainRequest](w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), logger, ctx, "rid")
			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("runs sanitize, normalize and validate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":"x"}`))
		result, ok := DecodeAndPrepare[preparedRequest](httptest.NewRecorder(), req, logger, ctx, "rid")

		require.True(t, ok)
		assert.True(t, result.sanitized)
		assert.True(t, result.normalized)
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":""}`))
		_, ok := DecodeAndPrepare[preparedRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		resp := decodeErr(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, "definition_id is required", resp.ErrorDescription)
	})

	t.Run("domain errors keep their code", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"definition_id":""}`))
		_, ok := DecodeAndPrepare[domainErrorRequest](w, req, logger, ctx, "rid")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeErr(t, w).Error)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		code   dErrors.Code
		status int
		body   string
	}{
		{dErrors.CodeInvalidVPToken, http.StatusBadRequest, "invalid_vp_token"},
		{dErrors.CodeInvalidTransition, http.StatusConflict, "invalid_transition"},
		{dErrors.CodeNotFound, http.StatusNotFound, "not_found"},
		{dErrors.CodeUnavailable, http.StatusServiceUnavailable, "upstream_unavailable"},
		{dErrors.CodeTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tt.code, "details"))
			assert.Equal(t, tt.status, w.Code)
			resp := decodeErr(t, w)
			assert.Equal(t, tt.body, resp.Error)
			assert.Equal(t, "details", resp.ErrorDescription)
		})
	}

	t.Run("foreign errors hide their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("dial tcp: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeErr(t, w)
		assert.Equal(t, "internal_error", resp.Error)
		assert.Empty(t, resp.ErrorDescription)
	})
}

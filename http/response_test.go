package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/scopefs"
	scopehttp "github.com/sagarc03/scopefs/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", scopefs.ErrNotFound, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("resolve %q: %w", "a", scopefs.ErrNotFound), http.StatusNotFound, "not_found"},
		{"joined not found", errors.Join(errors.New("context"), scopefs.ErrNotFound), http.StatusNotFound, "not_found"},
		{"permission denied", scopefs.ErrPermissionDenied, http.StatusForbidden, "forbidden"},
		{"invalid encoding", scopefs.ErrInvalidEncoding, http.StatusBadRequest, "invalid_path"},
		{"missing target", scopefs.ErrMissingTarget, http.StatusBadRequest, "missing_target"},
		{"bad boundary", scopefs.ErrBadBoundary, http.StatusBadRequest, "bad_boundary"},
		{"unauthorized", scopefs.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"io", fmt.Errorf("read dir: %w: disk", scopefs.ErrIO), http.StatusInternalServerError, "io_error"},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "payload_too_large"},
		{"other resolution failure", errors.New("not a directory"), http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			scopehttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp scopehttp.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantBody, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestHandleError_Canceled_WritesNothing(t *testing.T) {
	rec := httptest.NewRecorder()

	scopehttp.HandleError(rec, fmt.Errorf("resolve: %w", context.Canceled))

	assert.Empty(t, rec.Body.String())
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	scopehttp.WriteError(rec, http.StatusBadRequest, "test_error", "Test error message")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"test_error","message":"Test error message"}`, rec.Body.String())
}

func TestWriteJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	err := scopehttp.WriteJSON(rec, http.StatusOK, scopefs.UploadResult{Path: "a/b.txt", BytesWritten: 3, Digest: "abc"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":"a/b.txt","bytes_written":3,"digest":"abc"}`, rec.Body.String())
}

package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]any{"ok": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`+"\n", w.Body.String())
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	log, buf := logger.NewTestLogger()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "failed to encode JSON response")
}

func TestRespondWithData(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusOK, "OK"},
		{http.StatusCreated, "Created"},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			RespondWithData(w, req, tc.status, []string{"a"})

			assert.Equal(t, tc.status, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, tc.message, body["message"])
			assert.Equal(t, []any{"a"}, body["data"])
		})
	}
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "Not Found", body["message"])
	assert.Equal(t, "Task not found", body["data"])
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		message       string
		err           error
		expectedLevel string
	}{
		{
			name:          "server error",
			statusCode:    http.StatusInternalServerError,
			message:       "connection refused",
			err:           errors.New("dial postgres://app:secret@db:5432/tasks: connection refused"),
			expectedLevel: "ERROR",
		},
		{
			name:          "client error",
			statusCode:    http.StatusBadRequest,
			message:       "Name and email are required",
			err:           errors.New("name is required"),
			expectedLevel: "DEBUG",
		},
		{
			name:          "without error",
			statusCode:    http.StatusNotFound,
			message:       "User not found",
			expectedLevel: "DEBUG",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := logger.NewTestLogger()
			ctx := logger.WithLogger(WithTraceID(context.Background(), "test-trace-id"), log)
			req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
			w := httptest.NewRecorder()

			RespondWithErrorAndLog(w, req, tc.statusCode, tc.message, tc.err)

			assert.Equal(t, tc.statusCode, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, http.StatusText(tc.statusCode), body["message"])
			assert.Equal(t, tc.message, body["data"])

			entries, err := buf.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tc.expectedLevel, entry["level"])
			assert.Equal(t, "test-trace-id", entry["trace_id"])
			assert.Equal(t, float64(tc.statusCode), entry["status_code"])
			if tc.err != nil {
				assert.Contains(t, entry, "error_type")
				assert.NotContains(t, entry["error"], "secret")
			} else {
				assert.NotContains(t, entry, "error")
			}
		})
	}
}

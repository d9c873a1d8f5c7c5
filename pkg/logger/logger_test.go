package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&Options{Level: slog.LevelDebug, Service: "canteen", Writer: &buf}))

	var logged map[string]any
	h := middleware.RequestID(NewLoggerMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, "req-42", logged["request_id"])
	assert.Equal(t, "canteen", logged["service"])
	assert.Equal(t, "/api/menu", logged["path"])
	assert.EqualValues(t, http.StatusTeapot, logged["status"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

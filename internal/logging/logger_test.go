package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallback(t *testing.T) {
	var buf bytes.Buffer
	fallback := zerolog.New(&buf)

	FromContext(context.Background(), fallback).Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestMiddlewareInjectsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	h := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context(), zerolog.Nop()).Info().Msg("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/match/abc", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	line, err := buf.ReadBytes('\n')
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "inside", entry["message"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "/match/abc", entry["path"])
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	h := Middleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

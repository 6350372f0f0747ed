// Package testutil provides common testing utilities and helpers.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewCloudServer creates a test HTTP server with multiple path handlers,
// mimicking the vendor cloud. The handlers map keys are URL paths, values
// are handler functions.
func NewCloudServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("Unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
}

// NewCloudServerSequence creates a test server that returns responses in
// sequence regardless of path. Each call returns the next response in the
// slice. Useful for testing retry and fallback logic.
func NewCloudServerSequence(t *testing.T, responses []Response) *httptest.Server {
	t.Helper()

	callCount := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if callCount >= len(responses) {
			t.Errorf("More requests than configured responses (got %d requests, have %d responses)",
				callCount+1, len(responses))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		resp := responses[callCount]
		callCount++

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		_, err := w.Write([]byte(resp.Body))
		require.NoError(t, err, "Failed to write response body")
	}))
}

// Response is one canned response for NewCloudServerSequence.
type Response struct {
	Body       string
	StatusCode int
}

// WriteEnvelope writes a vendor response envelope with the given code, msg
// and result to the response writer.
func WriteEnvelope(t *testing.T, w http.ResponseWriter, code int64, msg string, result any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"code":   code,
		"msg":    msg,
		"result": result,
	})
	require.NoError(t, err, "Failed to encode envelope")
}

// DecodeBody decodes the request body into a map for assertions on the
// outbound envelope.
func DecodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body), "Failed to decode request body")
	return body
}

// AssertBodyField asserts a single field of a decoded request body.
func AssertBodyField(t *testing.T, body map[string]any, key string, want any) {
	t.Helper()
	assert.Equal(t, want, body[key], "body field %q", key)
}

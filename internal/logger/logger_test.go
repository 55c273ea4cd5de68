package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer

	prod := New(&buf, false)
	assert.Equal(t, zerolog.InfoLevel, prod.GetLevel())

	dev := New(&buf, true)
	assert.Equal(t, zerolog.DebugLevel, dev.GetLevel())
}

func TestTransport_LogsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	l := New(&buf, false).Level(zerolog.DebugLevel)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/notes", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-1")
	req = req.WithContext(l.WithContext(req.Context()))

	resp, err := NewTransport(nil).RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "http request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}

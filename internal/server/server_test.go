package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docker-express-env/internal/config"
)

var (
	startedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedNow  = startedAt.Add(90*time.Second + 500*time.Millisecond)
)

func newTestServer(t *testing.T, env string) (*Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg := &config.Config{
		Port:        3000,
		Environment: env,
		Version:     "1.0.0",
	}
	s := New(zerolog.New(&logs), cfg,
		WithClock(func() time.Time { return fixedNow }),
		WithStartTime(startedAt),
	)
	return s, &logs
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "production")

	w, body := do(t, s, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "production", body["environment"])
	assert.Equal(t, "2024-03-01T12:01:30.500Z", body["timestamp"])
	assert.InDelta(t, 90.5, body["uptime"], 0.001)
}

func TestRoot(t *testing.T) {
	s, _ := newTestServer(t, "production")

	w, body := do(t, s, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, welcomeMessage, body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "production", body["environment"])
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, "production")

	w, body := do(t, s, http.MethodGet, "/api/status")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "production", body["environment"])
	assert.Equal(t, "3000", body["port"])
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t, "production")

	tests := []struct {
		name   string
		method string
		target string
		path   string
	}{
		{"unknown path", http.MethodGet, "/nope", "/nope"},
		{"keeps query", http.MethodGet, "/nope?x=1", "/nope?x=1"},
		{"nested", http.MethodDelete, "/api/unknown", "/api/unknown"},
		{"wrong method", http.MethodPost, "/health", "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, s, tt.method, tt.target)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Route not found", body["error"])
			assert.Equal(t, tt.path, body["path"])
			assert.Equal(t, tt.method, body["method"])
		})
	}
}

func TestExpressStyleMatching(t *testing.T) {
	s, _ := newTestServer(t, "production")

	tests := []struct {
		name   string
		method string
		target string
		status string
	}{
		{"trailing slash", http.MethodGet, "/health/", "OK"},
		{"head on get route", http.MethodHead, "/health", "OK"},
		{"upper case", http.MethodGet, "/HEALTH", "OK"},
		{"mixed case with slash", http.MethodGet, "/Api/Status/", "running"},
		{"head with query", http.MethodHead, "/api/status?verbose=1", "running"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, s, tt.method, tt.target)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.status, body["status"])
		})
	}
}

func TestNotFoundKeepsRequestedCase(t *testing.T) {
	s, _ := newTestServer(t, "production")

	w, body := do(t, s, http.MethodGet, "/Missing/Page?Q=1")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/Missing/Page?Q=1", body["path"])
}

func TestHandlerErrorRedactedOutsideDevelopment(t *testing.T) {
	s, logs := newTestServer(t, "production")
	s.router.Get("/fail", s.handle(func(http.ResponseWriter, *http.Request) error {
		return errors.New("database exploded")
	}))

	w, body := do(t, s, http.MethodGet, "/fail")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "Something went wrong", body["message"])
	assert.Equal(t, "2024-03-01T12:01:30.500Z", body["timestamp"])
	assert.Contains(t, logs.String(), "database exploded")
}

func TestHandlerErrorDetailedInDevelopment(t *testing.T) {
	s, _ := newTestServer(t, config.EnvDevelopment)
	s.router.Get("/fail", s.handle(func(http.ResponseWriter, *http.Request) error {
		return errors.New("database exploded")
	}))

	w, body := do(t, s, http.MethodGet, "/fail")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "database exploded", body["message"])
}

func TestPanicBecomesInternalError(t *testing.T) {
	s, logs := newTestServer(t, "production")
	s.router.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w, body := do(t, s, http.MethodGet, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "Something went wrong", body["message"])
	assert.Contains(t, logs.String(), "handler panicked")
}

func TestPanicAfterHeadersKeepsResponse(t *testing.T) {
	s, logs := newTestServer(t, "production")
	s.router.Get("/partial", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("partial"))
		panic("late failure")
	})

	w, _ := do(t, s, http.MethodGet, "/partial")

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "partial", w.Body.String())
	assert.Contains(t, logs.String(), "handler panicked")
	assert.Contains(t, logs.String(), "late failure")
}

func TestRequestsLoggedBeforeHandling(t *testing.T) {
	s, logs := newTestServer(t, "production")
	var logged string
	s.router.Get("/probe", func(w http.ResponseWriter, _ *http.Request) {
		logged = logs.String()
		w.WriteHeader(http.StatusNoContent)
	})

	do(t, s, http.MethodGet, "/probe")

	require.NotEmpty(t, logged)
	var entry map[string]any
	line := strings.SplitN(logged, "\n", 2)[0]
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/probe", entry["path"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "production")
	do(t, s, http.MethodGet, "/health")

	w, _ := do(t, s, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/health",status="200"}`)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}

func TestStatelessAcrossRequests(t *testing.T) {
	s, _ := newTestServer(t, "production")

	_, first := do(t, s, http.MethodGet, "/api/status")
	do(t, s, http.MethodGet, "/nope")
	_, second := do(t, s, http.MethodGet, "/api/status")

	assert.Equal(t, first, second)
}

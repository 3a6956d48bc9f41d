package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/flightpath-labs/notam-interp/internal/adapter/http"
	"github.com/flightpath-labs/notam-interp/internal/memory"
	"github.com/flightpath-labs/notam-interp/internal/observability"
	"github.com/flightpath-labs/notam-interp/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(t *testing.T, readyErr error) (*httpadapter.Server, *memory.Store) {
	t.Helper()
	store := memory.Open(filepath.Join(t.TempDir(), "memory.json"))
	interp := pipeline.NewInterpreter(store, store, slog.Default(), observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", interp, store, nil, &mockReadiness{err: readyErr}, slog.Default())
	return srv, store
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestInterpretReturnsSegments(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()

	payload := `{"message":"Q) LFFF/QARLC/IV/NBO/E/000/195/\nA) LFFF B) 2508010600 C) 2508012200\nE) UL613 RESMI-OKASI CLSD"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/interpret", strings.NewReader(payload))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Interpretation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "UL613", result.Segments[0].Route)
	assert.Equal(t, "RESMI-OKASI", result.Segments[0].Segment)
	assert.Equal(t, "FL000-FL195", result.Segments[0].FL)
	assert.Equal(t, "parser-strong", result.Source)
	assert.False(t, result.Merged)
}

func TestInterpretRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/interpret", strings.NewReader(`{"message":`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemorySaveListClear(t *testing.T) {
	srv, store := newTestServer(t, nil)

	payload := `{"message":"E) UQ100 MAVAX-DEVRO CLSD","interpretation":"UQ100 MAVAX-DEVRO closed","fixes":{"MEVAX":"MAVAX"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/memory", strings.NewReader(payload))
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, store.Len())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/memory", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Entries []memory.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Entries, 1)
	assert.Equal(t, "E) UQ100 MAVAX-DEVRO CLSD", listed.Entries[0].Message)
	assert.Equal(t, "MAVAX", listed.Entries[0].Interpretation.Fixes["MEVAX"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/memory", nil)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestMemorySaveRequiresMessage(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/memory", strings.NewReader(`{"interpretation":"x"}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/application/commands/bus"
	"cogmap/application/graphsync"
	"cogmap/application/session"
	"cogmap/domain/services"
	"cogmap/infrastructure/observability"
	"cogmap/interfaces/http/rest/middleware"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	logger := zap.NewNop()
	handler := graphsync.NewUpdateHandler(services.NewLayoutEngine(services.DefaultLayoutConfig()), nil, nil, logger)
	s, err := session.New(session.Config{RootID: "A", RootLabel: "ROOT 问题"}, handler, bus.NewCommandBus(), logger)
	require.NoError(t, err)
	return s
}

func TestRouter_Routes(t *testing.T) {
	collector := observability.NewCollector("cogmap")
	router := NewRouter(newTestSession(t), Options{
		Registry:       collector.GetRegistry(),
		Observer:       collector,
		AllowedOrigins: []string{"http://localhost:3000"},
	}, zap.NewNop()).Setup()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/path", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"current_id":"A","path":["ROOT 问题"]}`, rec.Body.String())

	// Root deletion is refused before anything is sent.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/nodes/A", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cogmap_http_requests_total{method="GET",route="/api/path",status="200"} 1`)
}

func TestRequestID_KeepsValidIncoming(t *testing.T) {
	router := NewRouter(newTestSession(t), Options{}, zap.NewNop()).Setup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "3f6c1c2e-8d6a-4b8e-9a43-0f6d1a2b3c4d")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "3f6c1c2e-8d6a-4b8e-9a43-0f6d1a2b3c4d", rec.Header().Get(middleware.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(middleware.RequestIDHeader))
}

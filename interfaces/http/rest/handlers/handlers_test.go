package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/application/graphsync"
	pkgerrors "cogmap/pkg/errors"
)

type mockSession struct {
	mock.Mock
}

func (m *mockSession) View() graphsync.View {
	return m.Called().Get(0).(graphsync.View)
}

func (m *mockSession) Focus(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSession) AddNode(ctx context.Context, label, parentID string) error {
	return m.Called(ctx, label, parentID).Error(0)
}

func (m *mockSession) DeleteNode(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSession) RenameNode(ctx context.Context, id, label string) error {
	return m.Called(ctx, id, label).Error(0)
}

func (m *mockSession) Ask(ctx context.Context, question string) error {
	return m.Called(ctx, question).Error(0)
}

func testRouter(s Session) http.Handler {
	logger := zap.NewNop()
	graph := NewGraphHandler(s, logger)
	nodes := NewNodeHandler(s, logger)
	chat := NewChatHandler(s, logger)

	r := chi.NewRouter()
	r.Get("/api/graph", graph.GetGraph)
	r.Get("/api/path", graph.GetPath)
	r.Post("/api/focus", graph.Focus)
	r.Post("/api/nodes", nodes.CreateNode)
	r.Put("/api/nodes/{nodeID}", nodes.RenameNode)
	r.Delete("/api/nodes/{nodeID}", nodes.DeleteNode)
	r.Post("/api/chat", chat.Ask)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var sampleView = graphsync.View{
	Version:   3,
	RootID:    "A",
	CurrentID: "B",
	Path:      []string{"ROOT 问题", "child"},
}

func TestGraphHandler_GetGraphAndPath(t *testing.T) {
	s := new(mockSession)
	s.On("View").Return(sampleView)
	h := testRouter(s)

	rec := do(h, http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view graphsync.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "B", view.CurrentID)

	rec = do(h, http.MethodGet, "/api/path", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"current_id":"B","path":["ROOT 问题","child"]}`, rec.Body.String())
}

func TestGraphHandler_Focus(t *testing.T) {
	s := new(mockSession)
	s.On("Focus", mock.Anything, "B").Return(nil)
	s.On("Focus", mock.Anything, "Z").Return(pkgerrors.NewNotFound("node Z not found"))
	s.On("View").Return(sampleView)
	h := testRouter(s)

	rec := do(h, http.MethodPost, "/api/focus", `{"node_id":"B"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/api/focus", `{"node_id":"Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = do(h, http.MethodPost, "/api/focus", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/focus", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeHandler_Intents(t *testing.T) {
	s := new(mockSession)
	s.On("AddNode", mock.Anything, "why?", "").Return(nil).Once()
	s.On("RenameNode", mock.Anything, "B", "because").Return(nil).Once()
	s.On("DeleteNode", mock.Anything, "B").Return(nil).Once()
	h := testRouter(s)

	assert.Equal(t, http.StatusAccepted, do(h, http.MethodPost, "/api/nodes", `{"label":"why?"}`).Code)
	assert.Equal(t, http.StatusAccepted, do(h, http.MethodPut, "/api/nodes/B", `{"label":"because"}`).Code)
	assert.Equal(t, http.StatusAccepted, do(h, http.MethodDelete, "/api/nodes/B", "").Code)

	s.AssertExpectations(t)
}

func TestNodeHandler_ErrorMapping(t *testing.T) {
	s := new(mockSession)
	s.On("AddNode", mock.Anything, "", "A").Return(pkgerrors.NewValidation("invalid command: label required"))
	s.On("DeleteNode", mock.Anything, "A").Return(pkgerrors.NewRootDeletionForbidden("A"))
	s.On("RenameNode", mock.Anything, "B", "x").Return(
		pkgerrors.Wrap(errors.New("not connected"), "send request"))
	h := testRouter(s)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/nodes", `{"label":"","parent_id":"A"}`).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodDelete, "/api/nodes/A", "").Code)
	assert.Equal(t, http.StatusBadGateway, do(h, http.MethodPut, "/api/nodes/B", `{"label":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/api/nodes/B", `nope`).Code)
}

func TestChatHandler_Ask(t *testing.T) {
	s := new(mockSession)
	s.On("Ask", mock.Anything, "what next?").Return(nil).Once()
	h := testRouter(s)

	rec := do(h, http.MethodPost, "/api/chat", `{"question":"what next?"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"requested"}`, rec.Body.String())
	s.AssertExpectations(t)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// GraphHandler serves the rendered view and moves focus
type GraphHandler struct {
	session Session
	logger  *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(session Session, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{session: session, logger: logger}
}

// FocusRequest represents the request body for moving focus
type FocusRequest struct {
	NodeID string `json:"node_id"`
}

// PathResponse is the current path, root first
type PathResponse struct {
	CurrentID string   `json:"current_id"`
	Path      []string `json:"path"`
}

// GetGraph handles GET /api/graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.View())
}

// GetPath handles GET /api/path
func (h *GraphHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	view := h.session.View()
	respondJSON(w, http.StatusOK, PathResponse{CurrentID: view.CurrentID, Path: view.Path})
}

// Focus handles POST /api/focus
func (h *GraphHandler) Focus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.NodeID == "" {
		badRequest(w, "node_id is required")
		return
	}

	if err := h.session.Focus(r.Context(), req.NodeID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	view := h.session.View()
	respondJSON(w, http.StatusOK, PathResponse{CurrentID: view.CurrentID, Path: view.Path})
}

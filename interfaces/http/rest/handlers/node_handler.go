package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NodeHandler turns node intents into requests to the authority
type NodeHandler struct {
	session Session
	logger  *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(session Session, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{session: session, logger: logger}
}

// CreateNodeRequest represents the request body for adding a node. An
// empty parent_id means the current node.
type CreateNodeRequest struct {
	Label    string `json:"label"`
	ParentID string `json:"parent_id,omitempty"`
}

// RenameNodeRequest represents the request body for renaming a node
type RenameNodeRequest struct {
	Label string `json:"label"`
}

// CreateNode handles POST /api/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	if err := h.session.AddNode(r.Context(), req.Label, req.ParentID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, accepted)
}

// RenameNode handles PUT /api/nodes/{nodeID}
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	var req RenameNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	if err := h.session.RenameNode(r.Context(), nodeID, req.Label); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, accepted)
}

// DeleteNode handles DELETE /api/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")

	if err := h.session.DeleteNode(r.Context(), nodeID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, accepted)
}

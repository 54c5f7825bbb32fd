package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ChatHandler forwards questions to the authority. Answers arrive
// asynchronously on the presentation socket.
type ChatHandler struct {
	session Session
	logger  *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(session Session, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{session: session, logger: logger}
}

// AskRequest represents the request body for a question
type AskRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /api/chat
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}

	if err := h.session.Ask(r.Context(), req.Question); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, accepted)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"cogmap/application/graphsync"
	pkgerrors "cogmap/pkg/errors"
)

// Session is the part of the client session the API drives
type Session interface {
	View() graphsync.View
	Focus(ctx context.Context, id string) error
	AddNode(ctx context.Context, label, parentID string) error
	DeleteNode(ctx context.Context, id string) error
	RenameNode(ctx context.Context, id, label string) error
	Ask(ctx context.Context, question string) error
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// accepted is the body of intent endpoints: the request went out, the tree
// changes once the authority confirms
var accepted = map[string]string{"status": "requested"}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError maps the error taxonomy onto HTTP status codes
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	code := pkgerrors.TypeOf(err)
	switch code {
	case pkgerrors.ErrorTypeValidation, pkgerrors.ErrorTypeMalformedMessage:
		status = http.StatusBadRequest
	case pkgerrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case pkgerrors.ErrorTypeRootDeletionForbidden:
		status = http.StatusForbidden
	case pkgerrors.ErrorTypeInvalidParent, pkgerrors.ErrorTypeDuplicateID:
		status = http.StatusConflict
	case pkgerrors.ErrorTypeInternal:
		// The only internal failures on this path are sends to the authority
		status = http.StatusBadGateway
	}

	if status >= 500 {
		logger.Error("Request failed", zap.Error(err))
	}
	respondJSON(w, status, ErrorResponse{Error: err.Error(), Code: string(code)})
}

func badRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: message,
		Code:  string(pkgerrors.ErrorTypeValidation),
	})
}

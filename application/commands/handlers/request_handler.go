package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cogmap/application/commands"
	"cogmap/application/commands/bus"
	"cogmap/application/ports"
	pkgerrors "cogmap/pkg/errors"
)

// Outbound request types understood by the mutation authority
const (
	RequestAddNode    = "add_node"
	RequestDeleteNode = "delete_node"
	RequestUpdateNode = "update_node"
)

type addNodeRequest struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	ParentID string `json:"parent_id"`
}

type deleteNodeRequest struct {
	Type   string `json:"type"`
	NodeID string `json:"node_id"`
}

type updateNodeRequest struct {
	Type   string `json:"type"`
	NodeID string `json:"node_id"`
	Label  string `json:"label"`
}

type chatRequest struct {
	Question      string `json:"question"`
	CurrentNodeID string `json:"current_node_id"`
}

// Encode serializes a command into its request frame
func Encode(cmd bus.Command) ([]byte, error) {
	var payload interface{}
	switch c := cmd.(type) {
	case commands.AddNodeCommand:
		payload = addNodeRequest{Type: RequestAddNode, Label: c.Label, ParentID: c.ParentID}
	case commands.DeleteNodeCommand:
		payload = deleteNodeRequest{Type: RequestDeleteNode, NodeID: c.NodeID}
	case commands.RenameNodeCommand:
		payload = updateNodeRequest{Type: RequestUpdateNode, NodeID: c.NodeID, Label: c.Label}
	case commands.AskQuestionCommand:
		payload = chatRequest{Question: c.Question, CurrentNodeID: c.CurrentNodeID}
	default:
		return nil, pkgerrors.NewValidation(fmt.Sprintf("no request encoding for %T", cmd))
	}

	frame, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.NewInternal("encode request", err)
	}
	return frame, nil
}

// RequestHandler encodes commands and sends them to the authority.
// It never sees the tree; the authority's confirmation comes back as an
// inbound graph_update.
type RequestHandler struct {
	transport ports.Transport
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewRequestHandler creates a handler
func NewRequestHandler(transport ports.Transport, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		transport: transport,
		tracer:    otel.Tracer("cogmap/commands"),
		logger:    logger.Named("requests"),
	}
}

// Handle implements bus.CommandHandler
func (h *RequestHandler) Handle(ctx context.Context, cmd bus.Command) error {
	ctx, span := h.tracer.Start(ctx, "commands.send", trace.WithAttributes(
		attribute.String("command.type", fmt.Sprintf("%T", cmd)),
	))
	defer span.End()

	frame, err := Encode(cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return err
	}

	if err := h.transport.Send(ctx, frame); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send")
		return pkgerrors.Wrap(err, "send request")
	}

	h.logger.Debug("Request sent", zap.ByteString("frame", frame))
	return nil
}

// RegisterAll registers h for every outbound command type
func RegisterAll(b *bus.CommandBus, h bus.CommandHandler) error {
	for _, cmd := range []bus.Command{
		commands.AddNodeCommand{},
		commands.DeleteNodeCommand{},
		commands.RenameNodeCommand{},
		commands.AskQuestionCommand{},
	} {
		if err := b.Register(cmd, h); err != nil {
			return err
		}
	}
	return nil
}

package graphsync

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"cogmap/domain/core/valueobjects"
	pkgerrors "cogmap/pkg/errors"
)

// Envelope types sent by the mutation authority
const (
	TypeGraphUpdate = "graph_update"
	TypeChat        = "chat"
	TypeError       = "error"
)

// Structural mutation actions carried by a graph_update payload
const (
	ActionAddNode    = "add_node"
	ActionDeleteNode = "delete_node"
	ActionUpdateNode = "update_node"
)

// Inbound is a decoded frame from the mutation authority
type Inbound interface {
	inbound()
}

// Mutation is an inbound structural change confirmed by the authority.
// Only mutations are ever applied to the tree.
type Mutation interface {
	Inbound
	Action() string
}

// NodeAdded confirms that a node was created below ParentID
type NodeAdded struct {
	ID            valueobjects.NodeID
	Label         string
	ParentID      valueobjects.NodeID // zero when the authority sent a null parent
	DeclaredDepth *int
}

// NodeDeleted confirms that a node and its subtree were removed
type NodeDeleted struct {
	ID valueobjects.NodeID
}

// NodeUpdated confirms a new label for a node
type NodeUpdated struct {
	ID    valueobjects.NodeID
	Label string
}

// ChatAnswer carries an answer for the chat collaborator
type ChatAnswer struct {
	Answer string
}

// ServerError carries an error report for the chat collaborator
type ServerError struct {
	Message string
}

func (NodeAdded) inbound()   {}
func (NodeDeleted) inbound() {}
func (NodeUpdated) inbound() {}
func (ChatAnswer) inbound()  {}
func (ServerError) inbound() {}

func (NodeAdded) Action() string   { return ActionAddNode }
func (NodeDeleted) Action() string { return ActionDeleteNode }
func (NodeUpdated) Action() string { return ActionUpdateNode }

// Wire shapes. Pointers distinguish a missing field from an empty one.

type envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
	Answer  *string         `json:"answer"`
	Message string          `json:"message"`
}

type updatePayload struct {
	Action string          `json:"action" validate:"required,oneof=add_node delete_node update_node"`
	Node   json.RawMessage `json:"node"`
	NodeID string          `json:"node_id"`
}

type addNodeBody struct {
	ID     string  `json:"id" validate:"required"`
	Label  *string `json:"label" validate:"required"`
	Depth  *int    `json:"depth" validate:"omitempty,min=0"`
	Parent *string `json:"parent"`
}

type deleteNodeBody struct {
	NodeID string `json:"node_id" validate:"required"`
}

type updateNodeBody struct {
	ID    string  `json:"id" validate:"required"`
	Label *string `json:"label" validate:"required"`
}

type chatBody struct {
	Answer *string `json:"answer" validate:"required"`
}

// Decoder turns text frames into Inbound values. It validates shape only;
// structural checks belong to the tree.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder creates a decoder
func NewDecoder() *Decoder {
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Decoder{validate: v}
}

// Decode parses one frame. Any failure is a MalformedMessage error and the
// caller must not touch state.
func (d *Decoder) Decode(frame []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, pkgerrors.NewMalformedMessage("frame is not a JSON object", err)
	}
	if err := d.check(env, "envelope"); err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeGraphUpdate:
		return d.decodeUpdate(env.Payload)
	case TypeChat:
		body := chatBody{Answer: env.Answer}
		if err := d.check(body, "chat"); err != nil {
			return nil, err
		}
		return ChatAnswer{Answer: *env.Answer}, nil
	case TypeError:
		return ServerError{Message: env.Message}, nil
	default:
		return nil, pkgerrors.NewMalformedMessage(fmt.Sprintf("unknown envelope type %q", env.Type), nil)
	}
}

func (d *Decoder) decodeUpdate(raw json.RawMessage) (Mutation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, pkgerrors.NewMalformedMessage("graph_update without payload", nil)
	}

	var p updatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, pkgerrors.NewMalformedMessage("graph_update payload is not an object", err)
	}
	if err := d.check(p, "payload"); err != nil {
		return nil, err
	}

	switch p.Action {
	case ActionAddNode:
		var body addNodeBody
		if err := d.unmarshalNode(p.Node, &body); err != nil {
			return nil, err
		}
		if err := d.check(body, ActionAddNode); err != nil {
			return nil, err
		}
		added := NodeAdded{
			ID:            valueobjects.NodeID(body.ID),
			Label:         *body.Label,
			DeclaredDepth: body.Depth,
		}
		if body.Parent != nil {
			added.ParentID = valueobjects.NodeID(*body.Parent)
		}
		return added, nil

	case ActionDeleteNode:
		body := deleteNodeBody{NodeID: p.NodeID}
		if err := d.check(body, ActionDeleteNode); err != nil {
			return nil, err
		}
		return NodeDeleted{ID: valueobjects.NodeID(body.NodeID)}, nil

	default: // ActionUpdateNode, guaranteed by the oneof rule
		var body updateNodeBody
		if err := d.unmarshalNode(p.Node, &body); err != nil {
			return nil, err
		}
		if err := d.check(body, ActionUpdateNode); err != nil {
			return nil, err
		}
		return NodeUpdated{ID: valueobjects.NodeID(body.ID), Label: *body.Label}, nil
	}
}

func (d *Decoder) unmarshalNode(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return pkgerrors.NewMalformedMessage("payload is missing node", nil)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return pkgerrors.NewMalformedMessage("payload node is not an object", err)
	}
	return nil
}

func (d *Decoder) check(v interface{}, what string) error {
	if err := d.validate.Struct(v); err != nil {
		return pkgerrors.NewMalformedMessage(fmt.Sprintf("invalid %s", what), err)
	}
	return nil
}

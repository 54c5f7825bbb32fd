package graphsync

import (
	"encoding/json"
	"fmt"

	pkgerrors "cogmap/pkg/errors"
)

type addNodeFrame struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Depth  *int   `json:"depth,omitempty"`
	Parent string `json:"parent"`
}

type updateNodeFrame struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type updateFrame struct {
	Action string      `json:"action"`
	Node   interface{} `json:"node,omitempty"`
	NodeID string      `json:"node_id,omitempty"`
}

// EncodeMutation renders m as a graph_update frame, the form the authority
// broadcasts. Decode(EncodeMutation(m)) yields m.
func EncodeMutation(m Mutation) ([]byte, error) {
	var payload updateFrame
	switch mut := m.(type) {
	case NodeAdded:
		payload = updateFrame{Action: ActionAddNode, Node: addNodeFrame{
			ID:     mut.ID.String(),
			Label:  mut.Label,
			Depth:  mut.DeclaredDepth,
			Parent: mut.ParentID.String(),
		}}
	case NodeDeleted:
		payload = updateFrame{Action: ActionDeleteNode, NodeID: mut.ID.String()}
	case NodeUpdated:
		payload = updateFrame{Action: ActionUpdateNode, Node: updateNodeFrame{
			ID:    mut.ID.String(),
			Label: mut.Label,
		}}
	default:
		return nil, pkgerrors.NewValidation(fmt.Sprintf("no frame encoding for %T", m))
	}
	return marshalEnvelope(map[string]interface{}{"type": TypeGraphUpdate, "payload": payload})
}

// EncodeChat renders a chat answer frame
func EncodeChat(answer string) ([]byte, error) {
	return marshalEnvelope(map[string]interface{}{"type": TypeChat, "answer": answer})
}

// EncodeError renders an error frame
func EncodeError(message string) ([]byte, error) {
	return marshalEnvelope(map[string]interface{}{"type": TypeError, "message": message})
}

func marshalEnvelope(v interface{}) ([]byte, error) {
	frame, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.NewInternal("encode frame", err)
	}
	return frame, nil
}

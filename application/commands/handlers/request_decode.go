package handlers

import (
	"encoding/json"
	"fmt"

	"cogmap/application/commands"
	"cogmap/application/commands/bus"
	pkgerrors "cogmap/pkg/errors"
)

type requestHead struct {
	Type     string  `json:"type"`
	Question *string `json:"question"`
}

// DecodeRequest parses a request frame back into its command and validates
// it. It is the authority side of Encode.
func DecodeRequest(frame []byte) (bus.Command, error) {
	var head requestHead
	if err := json.Unmarshal(frame, &head); err != nil {
		return nil, pkgerrors.NewMalformedMessage("request is not a JSON object", err)
	}

	var cmd bus.Command
	switch {
	case head.Type == RequestAddNode:
		var req addNodeRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			return nil, pkgerrors.NewMalformedMessage("invalid add_node request", err)
		}
		cmd = commands.NewAddNodeCommand(req.Label, req.ParentID)
	case head.Type == RequestDeleteNode:
		var req deleteNodeRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			return nil, pkgerrors.NewMalformedMessage("invalid delete_node request", err)
		}
		cmd = commands.DeleteNodeCommand{NodeID: req.NodeID}
	case head.Type == RequestUpdateNode:
		var req updateNodeRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			return nil, pkgerrors.NewMalformedMessage("invalid update_node request", err)
		}
		cmd = commands.NewRenameNodeCommand(req.NodeID, req.Label)
	case head.Type == "" && head.Question != nil:
		var req chatRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			return nil, pkgerrors.NewMalformedMessage("invalid chat request", err)
		}
		cmd = commands.NewAskQuestionCommand(req.Question, req.CurrentNodeID)
	default:
		return nil, pkgerrors.NewMalformedMessage(fmt.Sprintf("unknown request type %q", head.Type), nil)
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

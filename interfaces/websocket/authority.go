package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cogmap/application/commands"
	"cogmap/application/commands/bus"
	"cogmap/application/commands/handlers"
	"cogmap/application/graphsync"
	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
)

// Responder answers chat questions for the dev authority
type Responder interface {
	Respond(ctx context.Context, question, currentNodeID string) (string, error)
}

// ErrNoReasoningBackend is what the default responder reports
var ErrNoReasoningBackend = errors.New("no reasoning backend configured")

// UnavailableResponder answers every question with an error
type UnavailableResponder struct{}

// Respond implements Responder
func (UnavailableResponder) Respond(context.Context, string, string) (string, error) {
	return "", ErrNoReasoningBackend
}

const (
	respondTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// Authority is a development mutation authority. It owns its own tree,
// mints node ids, applies requests and broadcasts the confirmed mutations
// to every connected client. A subtree delete is confirmed as one
// delete_node per removed id, parent first.
type Authority struct {
	hub       *Hub
	responder Responder
	upgrader  websocket.Upgrader
	logger    *zap.Logger

	mu   sync.Mutex
	tree *aggregates.Tree
}

// NewAuthority creates an authority whose tree holds only the root
func NewAuthority(rootID, rootLabel string, hub *Hub, responder Responder, logger *zap.Logger) (*Authority, error) {
	tree, err := aggregates.NewTree(valueobjects.NodeID(rootID), rootLabel)
	if err != nil {
		return nil, err
	}
	if responder == nil {
		responder = UnavailableResponder{}
	}
	return &Authority{
		hub:       hub,
		responder: responder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.Named("authority"),
		tree:   tree,
	}, nil
}

// ServeHTTP upgrades a client connection
func (a *Authority) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}
	NewClient(a.hub, conn, a.handleMessage, a.logger).Start()
}

// Records returns the authority's tree in insertion order
func (a *Authority) Records() []aggregates.NodeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tree.Records()
}

func (a *Authority) handleMessage(c *Client, message []byte) {
	cmd, err := handlers.DecodeRequest(message)
	if err != nil {
		a.logger.Warn("Bad request", zap.String("connectionID", c.ID()), zap.Error(err))
		a.replyError(c, err.Error())
		return
	}

	switch req := cmd.(type) {
	case commands.AskQuestionCommand:
		a.answer(c, req)
		return
	default:
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := a.apply(ctx, cmd); err != nil {
			a.logger.Info("Request refused", zap.String("connectionID", c.ID()), zap.Error(err))
			a.replyError(c, err.Error())
		}
	}
}

// apply mutates the tree and publishes the confirmations under one lock,
// so every client sees mutations in tree order. Confirmations are never
// dropped at the hub; a client that cannot keep up is disconnected.
func (a *Authority) apply(ctx context.Context, cmd bus.Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.tree.MarkEventsAsCommitted()

	var confirmed []graphsync.Mutation
	switch req := cmd.(type) {
	case commands.AddNodeCommand:
		id := valueobjects.NewNodeID()
		node, err := a.tree.Insert(id, req.Label, valueobjects.NodeID(req.ParentID))
		if err != nil {
			return err
		}
		depth := node.Depth()
		confirmed = append(confirmed, graphsync.NodeAdded{
			ID:            id,
			Label:         node.Label(),
			ParentID:      node.ParentID(),
			DeclaredDepth: &depth,
		})

	case commands.DeleteNodeCommand:
		removed, err := a.tree.RemoveSubtree(valueobjects.NodeID(req.NodeID))
		if err != nil {
			return err
		}
		for _, id := range removed {
			confirmed = append(confirmed, graphsync.NodeDeleted{ID: id})
		}

	case commands.RenameNodeCommand:
		if err := a.tree.Relabel(valueobjects.NodeID(req.NodeID), req.Label); err != nil {
			return err
		}
		confirmed = append(confirmed, graphsync.NodeUpdated{ID: valueobjects.NodeID(req.NodeID), Label: req.Label})
	}

	for _, m := range confirmed {
		frame, err := graphsync.EncodeMutation(m)
		if err != nil {
			return err
		}
		if err := a.hub.Publish(ctx, frame); err != nil {
			a.logger.Error("Confirmation not published", zap.String("action", m.Action()), zap.Error(err))
			return err
		}
	}
	a.logger.Debug("Request applied", zap.Int("mutations", len(confirmed)), zap.Int("nodes", a.tree.Len()))
	return nil
}

func (a *Authority) answer(c *Client, req commands.AskQuestionCommand) {
	ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
	defer cancel()

	text, err := a.responder.Respond(ctx, req.Question, req.CurrentNodeID)
	if err != nil {
		a.replyError(c, err.Error())
		return
	}
	frame, err := graphsync.EncodeChat(text)
	if err != nil {
		a.replyError(c, err.Error())
		return
	}
	c.Send(frame)
}

func (a *Authority) replyError(c *Client, message string) {
	frame, err := graphsync.EncodeError(message)
	if err != nil {
		return
	}
	if !c.Send(frame) {
		a.logger.Warn("Could not deliver error reply", zap.String("connectionID", c.ID()))
	}
}

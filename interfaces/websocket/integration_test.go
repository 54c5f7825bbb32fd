package websocket

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/application/commands/bus"
	"cogmap/application/commands/handlers"
	"cogmap/application/graphsync"
	"cogmap/application/session"
	"cogmap/domain/services"
	wstransport "cogmap/infrastructure/transport/websocket"
)

// TestSessionAgainstAuthority drives a client session over a real socket:
// intents go out as requests and the tree only changes on confirmations.
func TestSessionAgainstAuthority(t *testing.T) {
	logger := zap.NewNop()
	authority, srv := startAuthority(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var s *session.Session
	client := wstransport.NewClient("ws"+strings.TrimPrefix(srv.URL, "http"),
		func(frame []byte) { s.Deliver(frame) }, logger)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, handlers.RegisterAll(commandBus, handlers.NewRequestHandler(client, logger)))
	handler := graphsync.NewUpdateHandler(services.NewLayoutEngine(services.DefaultLayoutConfig()), graphsync.FollowNewChild{}, nil, logger)

	var err error
	s, err = session.New(session.Config{RootID: "A", RootLabel: "ROOT 问题"}, handler, commandBus, logger)
	require.NoError(t, err)

	go func() { _ = s.Run(ctx) }()
	go func() { _ = client.Run(ctx) }()
	require.Eventually(t, client.Connected, 3*time.Second, 5*time.Millisecond)

	require.NoError(t, s.AddNode(ctx, "first question", ""))
	require.Eventually(t, func() bool { return len(s.View().Nodes) == 2 }, 3*time.Second, 5*time.Millisecond)

	view := s.View()
	assert.Equal(t, []string{"ROOT 问题", "first question"}, view.Path)
	childID := view.CurrentID

	// Child of the new current node.
	require.NoError(t, s.AddNode(ctx, "follow-up", ""))
	require.Eventually(t, func() bool { return len(s.View().Nodes) == 3 }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, len(s.View().Path)-1)

	// Cascading delete: the authority confirms each id; the echoes are absorbed.
	require.NoError(t, s.DeleteNode(ctx, childID))
	require.Eventually(t, func() bool { return len(s.View().Nodes) == 1 }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, "A", s.View().CurrentID)
	assert.Len(t, authority.Records(), 1)
}

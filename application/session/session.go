package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cogmap/application/commands"
	"cogmap/application/commands/bus"
	"cogmap/application/graphsync"
	"cogmap/application/ports"
	"cogmap/domain/core/aggregates"
	"cogmap/domain/core/valueobjects"
	"cogmap/domain/services"
	pkgerrors "cogmap/pkg/errors"
)

const defaultQueueSize = 256

// Config holds session settings
type Config struct {
	RootID    string
	RootLabel string
	QueueSize int
}

// Session is the single execution context that owns the tree, the current
// pointer and the layout. Inbound frames, focus changes and layout reloads
// are queued and applied one at a time by Run; each is complete before the
// next starts. Everything else reads the last published View.
//
// User intents (AddNode, DeleteNode, RenameNode, Ask) only send requests
// through the command bus. The tree changes when the authority confirms.
type Session struct {
	handler  *graphsync.UpdateHandler
	decoder  *graphsync.Decoder
	commands *bus.CommandBus
	sink     ports.RenderSink
	notifier ports.Notifier
	chat     ports.ChatSink
	store    ports.SnapshotStore
	logger   *zap.Logger

	// Owned by the Run goroutine once it starts.
	state   *graphsync.State
	version uint64

	events  chan event
	done    chan struct{}
	running atomic.Bool
	view    atomic.Pointer[graphsync.View]
}

// Option configures optional collaborators
type Option func(*Session)

// WithRenderSink sets the presentation collaborator
func WithRenderSink(sink ports.RenderSink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithNotifier sets the collaborator that shows rejected-event notices
func WithNotifier(n ports.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithChatSink sets the chat collaborator
func WithChatSink(c ports.ChatSink) Option {
	return func(s *Session) { s.chat = c }
}

// WithSnapshotStore enables last-known-tree persistence
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(s *Session) { s.store = store }
}

type event interface{}

type frameEvent struct {
	frame []byte
}

type focusEvent struct {
	id    valueobjects.NodeID
	reply chan error
}

type layoutEvent struct {
	engine *services.LayoutEngine
}

// New creates a session holding only the root node
func New(cfg Config, handler *graphsync.UpdateHandler, commandBus *bus.CommandBus, logger *zap.Logger, opts ...Option) (*Session, error) {
	rootID, err := valueobjects.NewNodeIDFromString(cfg.RootID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "root id")
	}
	tree, err := aggregates.NewTree(rootID, cfg.RootLabel)
	if err != nil {
		return nil, err
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	s := &Session{
		handler:  handler,
		decoder:  graphsync.NewDecoder(),
		commands: commandBus,
		logger:   logger.Named("session"),
		state:    graphsync.NewState(tree, rootID),
		events:   make(chan event, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler.Relayout(s.state)
	s.publish()
	return s, nil
}

// Run restores the last snapshot, if any, and processes events until ctx
// is cancelled. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session already running")
	}
	defer close(s.done)

	s.restore(ctx)

	s.logger.Info("Session started",
		zap.String("rootID", s.state.Tree.RootID().String()),
		zap.Int("nodes", s.state.Tree.Len()),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session stopped")
			return ctx.Err()
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

// Deliver queues an inbound frame. It is the transport's onmessage hook
// and preserves arrival order.
func (s *Session) Deliver(frame []byte) {
	select {
	case s.events <- frameEvent{frame: frame}:
	case <-s.done:
		s.logger.Debug("Dropping frame after shutdown")
	}
}

// Focus moves the current pointer to id, as on a node click
func (s *Session) Focus(ctx context.Context, id string) error {
	reply := make(chan error, 1)
	select {
	case s.events <- focusEvent{id: valueobjects.NodeID(id), reply: reply}:
	case <-s.done:
		return fmt.Errorf("session stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return fmt.Errorf("session stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReloadLayout queues a relayout of the whole tree with new spacing
func (s *Session) ReloadLayout(cfg services.LayoutConfig) {
	select {
	case s.events <- layoutEvent{engine: services.NewLayoutEngine(cfg)}:
	case <-s.done:
	}
}

// View returns the last published view
func (s *Session) View() graphsync.View {
	return *s.view.Load()
}

// AddNode requests a new child of parentID, or of the current node when
// parentID is empty
func (s *Session) AddNode(ctx context.Context, label, parentID string) error {
	if parentID == "" {
		parentID = s.View().CurrentID
	}
	return s.commands.Send(ctx, commands.NewAddNodeCommand(label, parentID))
}

// DeleteNode requests deletion of id and its subtree. The root is refused
// locally.
func (s *Session) DeleteNode(ctx context.Context, id string) error {
	if id == s.View().RootID {
		return pkgerrors.NewRootDeletionForbidden(id)
	}
	return s.commands.Send(ctx, commands.DeleteNodeCommand{NodeID: id})
}

// RenameNode requests a new label for id
func (s *Session) RenameNode(ctx context.Context, id, label string) error {
	return s.commands.Send(ctx, commands.NewRenameNodeCommand(id, label))
}

// Ask sends a chat question anchored at the current node
func (s *Session) Ask(ctx context.Context, question string) error {
	return s.commands.Send(ctx, commands.NewAskQuestionCommand(question, s.View().CurrentID))
}

func (s *Session) dispatch(ctx context.Context, ev event) {
	switch e := ev.(type) {
	case frameEvent:
		s.handleFrame(ctx, e.frame)
	case focusEvent:
		err := s.state.Focus(e.id)
		if err == nil {
			s.publish()
			s.persist(ctx)
		}
		e.reply <- err
	case layoutEvent:
		s.handler.SetLayout(e.engine)
		s.handler.Relayout(s.state)
		s.publish()
		s.logger.Info("Layout reloaded", zap.Any("config", e.engine.Config()))
	}
}

func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	in, err := s.decoder.Decode(frame)
	if err != nil {
		s.logger.Warn("Malformed frame", zap.Error(err), zap.Int("bytes", len(frame)))
		s.notify(ports.Notice{Kind: ports.NoticeMalformedMessage, Message: err.Error(), Err: err})
		return
	}

	switch v := in.(type) {
	case graphsync.Mutation:
		out, err := s.handler.Apply(ctx, s.state, v)
		if err != nil {
			s.notify(ports.Notice{
				Kind:    ports.NoticeRejectedMutation,
				Action:  v.Action(),
				Message: err.Error(),
				Err:     err,
			})
			return
		}
		s.commitEvents()
		if out.Echo {
			return
		}
		s.publish()
		s.persist(ctx)

	case graphsync.ChatAnswer:
		if s.chat != nil {
			s.chat.Answer(v.Answer)
		}

	case graphsync.ServerError:
		s.logger.Warn("Authority reported an error", zap.String("message", v.Message))
		if s.chat != nil {
			s.chat.Failure(v.Message)
		}
	}
}

func (s *Session) commitEvents() {
	for _, e := range s.state.Tree.GetUncommittedEvents() {
		s.logger.Debug("Tree event", zap.String("type", e.GetEventType()))
	}
	s.state.Tree.MarkEventsAsCommitted()
}

func (s *Session) publish() {
	s.version++
	view := graphsync.BuildView(s.state, s.version)
	s.view.Store(&view)
	if s.sink != nil {
		s.sink.Render(view)
	}
}

func (s *Session) notify(n ports.Notice) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap := ports.Snapshot{
		Records:   s.state.Tree.Records(),
		CurrentID: s.state.Current.String(),
		SavedAt:   time.Now().UTC(),
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Warn("Failed to save snapshot", zap.Error(err))
	}
}

func (s *Session) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("Failed to load snapshot, starting from root", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	tree, err := aggregates.RebuildTree(snap.Records)
	if err != nil {
		s.logger.Warn("Discarding invalid snapshot", zap.Error(err))
		return
	}
	if tree.RootID() != s.state.Tree.RootID() {
		s.logger.Warn("Discarding snapshot for a different root",
			zap.String("snapshotRoot", tree.RootID().String()),
			zap.String("configuredRoot", s.state.Tree.RootID().String()),
		)
		return
	}

	s.state = graphsync.NewState(tree, valueobjects.NodeID(snap.CurrentID))
	s.handler.Relayout(s.state)
	s.publish()
	s.logger.Info("Snapshot restored",
		zap.Int("nodes", tree.Len()),
		zap.Time("savedAt", snap.SavedAt),
	)
}

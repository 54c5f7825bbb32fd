package ports

import (
	"context"
	"time"

	"cogmap/application/graphsync"
	"cogmap/domain/core/aggregates"
)

// Transport is the duplex channel to the mutation authority. Frames are
// UTF-8 JSON text; inbound frames are delivered one at a time, in order, to
// the FrameHandler given to the transport when it connects.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
}

// FrameHandler receives inbound frames
type FrameHandler func(frame []byte)

// RenderSink receives a fresh View after every change the presentation
// layer must show
type RenderSink interface {
	Render(view graphsync.View)
}

// NoticeKind classifies user-visible notices
type NoticeKind string

const (
	NoticeRejectedMutation NoticeKind = "rejected_mutation"
	NoticeMalformedMessage NoticeKind = "malformed_message"
)

// Notice is a user-visible report of a rejected event
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Action  string     `json:"action,omitempty"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

// Notifier surfaces notices through the display collaborator
type Notifier interface {
	Notify(notice Notice)
}

// ChatSink receives chat traffic, which the core never interprets
type ChatSink interface {
	Answer(text string)
	Failure(message string)
}

// Snapshot is the persisted last-known tree
type Snapshot struct {
	Records   []aggregates.NodeRecord
	CurrentID string
	SavedAt   time.Time
}

// SnapshotStore persists the last-known tree between runs
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	// Load returns ok=false when nothing has been saved yet
	Load(ctx context.Context) (snapshot Snapshot, ok bool, err error)
}

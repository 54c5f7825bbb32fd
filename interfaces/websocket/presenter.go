package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cogmap/application/graphsync"
	"cogmap/application/ports"
)

// Frame types pushed to presentation clients
const (
	FrameView      = "view"
	FrameNotice    = "notice"
	FrameChat      = "chat"
	FrameChatError = "chat_error"
)

// PushFrame is the envelope pushed to presentation clients
type PushFrame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Presenter pushes views, notices and chat traffic to every browser
// connected on its endpoint. New connections get the latest view first.
type Presenter struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu       sync.RWMutex
	lastView []byte
}

var (
	_ ports.RenderSink = (*Presenter)(nil)
	_ ports.Notifier   = (*Presenter)(nil)
	_ ports.ChatSink   = (*Presenter)(nil)
)

// NewPresenter creates a presenter broadcasting through hub. It installs
// the hub's welcome frames.
func NewPresenter(hub *Hub, logger *zap.Logger) *Presenter {
	p := &Presenter{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.Named("presenter"),
	}
	hub.SetWelcome(p.welcome)
	return p
}

func (p *Presenter) welcome() [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastView == nil {
		return nil
	}
	return [][]byte{p.lastView}
}

// Render implements ports.RenderSink
func (p *Presenter) Render(view graphsync.View) {
	frame, ok := p.encode(FrameView, view)
	if !ok {
		return
	}
	p.mu.Lock()
	p.lastView = frame
	p.mu.Unlock()
	p.hub.Broadcast(frame)
}

// Notify implements ports.Notifier
func (p *Presenter) Notify(notice ports.Notice) {
	if frame, ok := p.encode(FrameNotice, notice); ok {
		p.hub.Broadcast(frame)
	}
}

// Answer implements ports.ChatSink
func (p *Presenter) Answer(text string) {
	if frame, ok := p.encode(FrameChat, map[string]string{"answer": text}); ok {
		p.hub.Broadcast(frame)
	}
}

// Failure implements ports.ChatSink
func (p *Presenter) Failure(message string) {
	if frame, ok := p.encode(FrameChatError, map[string]string{"message": message}); ok {
		p.hub.Broadcast(frame)
	}
}

// ServeHTTP upgrades a presentation client. Inbound messages are ignored;
// intents go through the REST API.
func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}

	NewClient(p.hub, conn, nil, p.logger).Start()
}

func (p *Presenter) encode(kind string, data interface{}) ([]byte, bool) {
	frame, err := json.Marshal(PushFrame{Type: kind, Data: data, Timestamp: time.Now().Unix()})
	if err != nil {
		p.logger.Error("Failed to encode push frame", zap.String("type", kind), zap.Error(err))
		return nil, false
	}
	return frame, true
}

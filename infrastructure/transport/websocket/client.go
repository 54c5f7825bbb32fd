package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"cogmap/application/ports"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size
	sendBufferSize = 256
)

var (
	// ErrNotConnected is returned by Send while no connection is up
	ErrNotConnected = errors.New("not connected to mutation authority")
	// ErrSendBufferFull is returned when the write pump is not keeping up
	ErrSendBufferFull = errors.New("send buffer full")
)

// LinkMetrics receives connection-level counters
type LinkMetrics interface {
	FrameReceived()
	Reconnected()
}

// BreakerConfig holds the circuit breaker settings guarding Send
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the stock breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client is the duplex transport to the mutation authority. It keeps one
// websocket open, reconnecting with backoff, and hands every inbound text
// frame to the FrameHandler in arrival order.
type Client struct {
	url     string
	dialer  *websocket.Dialer
	handler ports.FrameHandler
	send    chan []byte
	breaker *gobreaker.CircuitBreaker
	metrics LinkMetrics
	logger  *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	mu        sync.RWMutex
	connected bool
}

// Option configures a Client
type Option func(*Client)

// WithLinkMetrics reports frames and reconnects to m
func WithLinkMetrics(m LinkMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBackoff sets the reconnect delay bounds
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.minBackoff = min
		c.maxBackoff = max
	}
}

// WithBreaker replaces the default breaker settings
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) { c.breaker = c.newBreaker(cfg) }
}

// NewClient creates a transport for url. Call Run to connect.
func NewClient(url string, handler ports.FrameHandler, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:        url,
		dialer:     &websocket.Dialer{HandshakeTimeout: writeWait},
		handler:    handler,
		send:       make(chan []byte, sendBufferSize),
		logger:     logger.Named("authority").With(zap.String("url", url)),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	c.breaker = c.newBreaker(DefaultBreakerConfig())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "authority-send",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Connected reports whether a connection is currently up
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Send queues one text frame for the write pump. It fails fast while the
// link is down or the breaker is open; nothing is retried.
func (c *Client) Send(ctx context.Context, frame []byte) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		if !c.Connected() {
			return nil, ErrNotConnected
		}
		select {
		case c.send <- frame:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return nil, ErrSendBufferFull
		}
	})
	if err != nil {
		return fmt.Errorf("send to authority: %w", err)
	}
	return nil
}

// Run connects and keeps the connection alive until ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	delay := c.minBackoff
	dialed := false

	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Dial failed", zap.Error(err), zap.Duration("retryIn", delay))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextBackoff(delay, c.maxBackoff)
			continue
		}

		if dialed && c.metrics != nil {
			c.metrics.Reconnected()
		}
		dialed = true
		delay = c.minBackoff

		c.logger.Info("Connected to mutation authority")
		err = c.serve(ctx, conn)

		if ctx.Err() != nil {
			c.logger.Info("Authority link closed")
			return ctx.Err()
		}
		c.logger.Warn("Authority link lost", zap.Error(err), zap.Duration("retryIn", delay))
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// serve runs the pumps for one connection and returns when either stops
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.setConnected(true)
	defer c.setConnected(false)

	errc := make(chan error, 2)
	go func() { errc <- c.writePump(connCtx, conn) }()
	go func() { errc <- c.readPump(conn) }()

	err := <-errc
	c.setConnected(false)
	cancel()
	conn.Close()
	<-errc
	return err
}

// readPump delivers inbound frames to the handler, one at a time
func (c *Client) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			return err
		}

		switch messageType {
		case websocket.TextMessage:
			if c.metrics != nil {
				c.metrics.FrameReceived()
			}
			c.handler(message)
		case websocket.BinaryMessage:
			c.logger.Warn("Binary messages not supported")
		}
	}
}

// writePump writes queued frames and keeps the link alive with pings
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil

		case message := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return err
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("Failed to send ping", zap.Error(err))
				return err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

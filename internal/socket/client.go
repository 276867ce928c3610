// Package socket consumes the node's websocket event stream.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	_eventBuffer              = 64
	_defaultReconnectDelay    = time.Second
	_defaultMaxReconnectDelay = 30 * time.Second
	_handshakeTimeout         = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	// URL is the websocket endpoint, e.g. ws://localhost:2333/v4/websocket.
	URL        string
	Passphrase string
	UserID     string
	ClientName string

	// Resume sends the last session id on reconnect so the node can resume it.
	Resume bool

	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// Client keeps a connection to the node open and publishes its events.
type Client struct {
	logger *zap.Logger
	opts   Options
	dialer *websocket.Dialer
	events chan domain.Event

	mu              sync.RWMutex
	running         bool
	stopped         bool
	cancel          context.CancelFunc
	conn            *websocket.Conn
	userID          string
	sessionID       string
	lastDropWarning time.Time
	wg              sync.WaitGroup
}

// New creates a client. Nothing is dialed before Run or Start.
func New(opts Options, logger *zap.Logger) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = _defaultReconnectDelay
	}
	if opts.MaxReconnectDelay < opts.ReconnectDelay {
		opts.MaxReconnectDelay = max(_defaultMaxReconnectDelay, opts.ReconnectDelay)
	}

	return &Client{
		logger: logger,
		opts:   opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: _handshakeTimeout,
		},
		events: make(chan domain.Event, _eventBuffer),
		userID: opts.UserID,
	}
}

// SetUserID sets the bot user id sent on the next dial.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// Events returns the stream of node events. It is closed by Stop.
func (c *Client) Events() <-chan domain.Event {
	return c.events
}

// SessionID returns the id from the last ready message.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// ErrStopped is returned when a stopped client is started again.
var ErrStopped = errors.New("socket: client stopped")

// Run starts connecting in the background and returns at once. The client
// keeps reconnecting until ctx is done or Stop is called.
func (c *Client) Run(ctx context.Context) error {
	_, err := c.run(ctx)
	return err
}

// Start is Run, blocking until the client stops.
func (c *Client) Start(ctx context.Context) error {
	socketCtx, err := c.run(ctx)
	if err != nil || socketCtx == nil {
		return err
	}

	<-socketCtx.Done()
	c.logger.Info("Node socket stopped")
	return socketCtx.Err()
}

// run registers the connect loop before returning, so a Stop that follows
// always finds it.
func (c *Client) run(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil, ErrStopped
	}
	if c.running {
		return nil, nil
	}
	c.running = true

	socketCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.connectLoop(socketCtx)

	c.logger.Info("Node socket started", zap.String("url", c.opts.URL))
	return socketCtx, nil
}

// Stop closes the connection and the events channel.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
	c.stopped = true
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			c.logger.Debug("Failed to send close frame", zap.Error(err))
		}
	}

	// Producers must be gone before the channel is closed.
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	close(c.events)
	c.logger.Info("Node socket shutdown complete")
	return nil
}

func (c *Client) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	delay := c.opts.ReconnectDelay
	for {
		connected, err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = c.opts.ReconnectDelay
		}

		code := 0
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			code = closeErr.Code
		}
		c.emit(ctx, domain.DisconnectedEvent{Code: code, Reason: err.Error()})

		c.logger.Warn("Node socket disconnected, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, c.opts.MaxReconnectDelay)
	}
}

// runConnection dials once and reads until the connection fails.
func (c *Client) runConnection(ctx context.Context) (connected bool, err error) {
	c.mu.RLock()
	userID, sid := c.userID, c.sessionID
	c.mu.RUnlock()

	header := http.Header{}
	header.Set("Authorization", c.opts.Passphrase)
	header.Set("User-Id", userID)
	header.Set("Client-Name", c.opts.ClientName)
	if c.opts.Resume && sid != "" {
		header.Set("Session-Id", sid)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.logger.Info("Connected to node", zap.String("url", c.opts.URL))

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}

		ev, err := protocol.ParseEvent(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownMessage) {
				c.logger.Debug("Ignoring node message", zap.Error(err))
			} else {
				c.logger.Warn("Malformed node message", zap.Error(err))
			}
			continue
		}

		if ready, ok := ev.(domain.ReadyEvent); ok {
			c.mu.Lock()
			c.sessionID = ready.SessionID
			c.mu.Unlock()
		}
		c.emit(ctx, ev)
	}
}

// emit publishes ev. Statistics are dropped when the consumer lags; every
// other event drives player state and waits for room.
func (c *Client) emit(ctx context.Context, ev domain.Event) {
	if ev.Type() == domain.EventStatistics {
		select {
		case c.events <- ev:
		default:
			c.logChannelFullWarning()
		}
		return
	}

	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Client) logChannelFullWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()

	const warningInterval = 5 * time.Second
	now := time.Now()

	if now.Sub(c.lastDropWarning) >= warningInterval {
		c.logger.Warn("Events channel full, dropping node statistics")
		c.lastDropWarning = now
	}
}

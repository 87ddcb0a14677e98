package transport

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/coder/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/hearth/internal/crdt"
)

// Status is the transport connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	sendBufferSize = 32
	pingInterval   = 30 * time.Second
	backoffBase    = 500 * time.Millisecond
	backoffCap     = 30 * time.Second
)

// Config describes one relay connection.
type Config struct {
	// URL is the relay endpoint, e.g. "ws://relay.local:9090/sync".
	URL string
	// Room names the shared document; it doubles as the relay-side
	// namespace.
	Room string
	// Secret optionally seals room traffic. Must match the relay's.
	Secret string
	Logger *slog.Logger
}

// Client keeps a document synchronized with a relay. All network I/O runs
// in the background: document writes never wait on the connection, and the
// client retries a lost relay forever with capped backoff.
//
// On every (re)connect the client opens with a full state-vector exchange,
// so convergence holds even when deltas were lost during the outage.
type Client struct {
	cfg    Config
	doc    *crdt.Doc
	cipher *roomCipher
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	outgoing chan []byte
	kick     chan struct{}

	mu       sync.Mutex
	status   Status
	statusFn func(Status)
}

// NewClient creates a client for the document. Call Connect to start
// synchronizing.
func NewClient(doc *crdt.Doc, cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:      cfg,
		doc:      doc,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		outgoing: make(chan []byte, sendBufferSize),
		kick:     make(chan struct{}, 1),
	}

	if cfg.Secret != "" {
		cipher, err := newRoomCipher(cfg.Secret, cfg.Room)
		if err != nil {
			cancel()
			return nil, err
		}
		c.cipher = cipher
	}

	doc.OnDelta(func(d crdt.Delta, local bool) {
		if !local {
			return
		}
		c.enqueueDelta(d)
	})
	return c, nil
}

// OnStatus registers a callback for connection state changes. Set before
// Connect.
func (c *Client) OnStatus(fn func(Status)) {
	c.mu.Lock()
	c.statusFn = fn
	c.mu.Unlock()
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect starts the connection loop and returns immediately.
func (c *Client) Connect() {
	go c.run()
}

// Close tears the connection down and stops all retries.
func (c *Client) Close() {
	c.cancel()
	<-c.done
}

func (c *Client) run() {
	defer close(c.done)
	defer c.setStatus(StatusDisconnected)

	for {
		c.setStatus(StatusConnecting)

		var conn *ws.Conn
		backoff := retry.WithCappedDuration(backoffCap, retry.NewFibonacci(backoffBase))
		err := retry.Do(c.ctx, backoff, func(ctx context.Context) error {
			cn, _, err := ws.Dial(ctx, c.dialURL(), nil)
			if err != nil {
				c.logger.Debug("relay dial failed, will retry", "url", c.cfg.URL, "error", err)
				return retry.RetryableError(err)
			}
			conn = cn
			return nil
		})
		if err != nil {
			// Context canceled: Close was called.
			return
		}

		c.setStatus(StatusConnected)
		c.session(conn)
		conn.Close(ws.StatusNormalClosure, "")
		c.setStatus(StatusDisconnected)

		if c.ctx.Err() != nil {
			return
		}
		c.logger.Info("relay connection lost, reconnecting", "room", c.cfg.Room)
	}
}

func (c *Client) dialURL() string {
	return c.cfg.URL + "?room=" + url.QueryEscape(c.cfg.Room)
}

// session runs one connection: full-state handshake, then steady-state
// delta exchange. Returns when the connection drops, a kick forces a
// resync, or the client closes.
func (c *Client) session(conn *ws.Conn) {
	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	go func() {
		select {
		case <-c.kick:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.sendHello(); err != nil {
		c.logger.Error("handshake", "error", err)
		return
	}

	go c.writePump(ctx, conn)
	c.readLoop(ctx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn *ws.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) writePump(ctx context.Context, conn *ws.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.outgoing:
			if err := conn.Write(ctx, ws.MessageBinary, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleFrame(data []byte) {
	f, err := decodeFrame(data)
	if err != nil {
		c.logger.Warn("dropping undecodable frame", "error", err)
		return
	}
	payload, err := c.openPayload(f.Payload)
	if err != nil {
		c.logger.Warn("dropping unreadable frame", "kind", f.Kind, "error", err)
		return
	}

	switch f.Kind {
	case kindSync:
		vector, delta, err := decodeSyncPayload(payload)
		if err != nil {
			c.logger.Warn("dropping malformed sync frame", "error", err)
			return
		}
		c.doc.ApplyDelta(delta)
		// Second half of the exchange: what the relay is missing.
		if reply := c.doc.DeltaSince(vector); !reply.Empty() {
			c.enqueueDelta(reply)
		}
	case kindDelta:
		delta, err := crdt.DecodeDelta(payload)
		if err != nil {
			c.logger.Warn("dropping malformed delta frame", "error", err)
			return
		}
		c.doc.ApplyDelta(delta)
	default:
		c.logger.Warn("dropping frame of unknown kind", "kind", f.Kind)
	}
}

func (c *Client) sendHello() error {
	payload, err := crdt.EncodeVector(c.doc.Vector())
	if err != nil {
		return err
	}
	return c.enqueue(kindHello, payload)
}

func (c *Client) enqueueDelta(d crdt.Delta) {
	payload, err := d.Encode()
	if err != nil {
		c.logger.Error("encode delta", "error", err)
		return
	}
	if err := c.enqueue(kindDelta, payload); err != nil {
		c.logger.Error("enqueue delta", "error", err)
	}
}

// enqueue seals and queues a frame for the write pump. When the queue is
// full the frame is dropped and the session kicked: the reconnect handshake
// re-establishes convergence, so nothing is permanently lost.
func (c *Client) enqueue(kind string, payload []byte) error {
	sealed, err := c.sealPayload(payload)
	if err != nil {
		return err
	}
	data, err := encodeFrame(frame{Kind: kind, Payload: sealed})
	if err != nil {
		return err
	}

	select {
	case c.outgoing <- data:
	default:
		c.logger.Warn("send queue full, forcing resync", "room", c.cfg.Room)
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

func (c *Client) sealPayload(payload []byte) ([]byte, error) {
	if c.cipher == nil {
		return payload, nil
	}
	return c.cipher.Seal(payload)
}

func (c *Client) openPayload(payload []byte) ([]byte, error) {
	if c.cipher == nil {
		return payload, nil
	}
	return c.cipher.Open(payload)
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	changed := c.status != s
	c.status = s
	fn := c.statusFn
	c.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

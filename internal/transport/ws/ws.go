// Package ws is the websocket transport adapter: it dials the server,
// decodes envelope frames into engine events and writes outbound events
// back on the same connection.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/transport"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

type Config struct {
	URL   string
	Token string
}

type Client struct {
	cfg Config
	log *zap.SugaredLogger

	mu      sync.Mutex
	conn    *websocket.Conn
	handler transport.Handler
	onConn  func()
	onDisc  func(err error)
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, log *zap.SugaredLogger) *Client {
	return &Client{cfg: cfg, log: log}
}

func (c *Client) Subscribe(h transport.Handler)   { c.mu.Lock(); c.handler = h; c.mu.Unlock() }
func (c *Client) OnConnected(fn func())           { c.mu.Lock(); c.onConn = fn; c.mu.Unlock() }
func (c *Client) OnDisconnected(fn func(e error)) { c.mu.Lock(); c.onDisc = fn; c.mu.Unlock() }

// Connect dials the server and starts the read and ping loops. The
// connected callback fires before any event is delivered.
func (c *Client) Connect(ctx context.Context) error {
	hdr := http.Header{}
	if c.cfg.Token != "" {
		hdr.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, _, err := websocket.Dial(ctx, c.cfg.URL, &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return err
	}
	conn.SetReadLimit(1024 * 64)

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	onConn := c.onConn
	c.mu.Unlock()

	if onConn != nil {
		onConn()
	}

	c.wg.Add(2)
	go c.readLoop(runCtx, conn)
	go c.pingLoop(runCtx, conn)
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			onDisc := c.onDisc
			closed := c.closed
			c.mu.Unlock()
			if onDisc != nil && !closed {
				onDisc(err)
			}
			return
		}
		env, err := transport.DecodeEnvelope(data)
		if err != nil || env.Event == "" {
			c.log.Debugw("dropping malformed frame", "err", err)
			continue
		}
		c.mu.Lock()
		h := c.handler
		c.mu.Unlock()
		if h != nil {
			h(env.Event, env.Data)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			if err := conn.Ping(pctx); err != nil {
				cancel()
				return
			}
			cancel()
		}
	}
}

func (c *Client) Emit(event string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws: not connected")
	}
	frame, err := transport.EncodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		err = conn.Close(websocket.StatusNormalClosure, "client shutdown")
	}
	c.wg.Wait()
	return err
}

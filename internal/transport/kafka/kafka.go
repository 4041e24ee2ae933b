// Package kafka is the broker transport adapter for bridge deployments
// where server events land on a topic instead of a socket. Inbound
// frames use the same envelope as the websocket adapter; outbound
// acknowledgements go to a companion topic.
package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/transport"
)

type Config struct {
	Brokers  []string
	TopicIn  string
	TopicOut string
	GroupID  string
}

type Client struct {
	reader *kafka.Reader
	writer *kafka.Writer
	log    *zap.SugaredLogger

	mu      sync.Mutex
	handler transport.Handler
	onConn  func()
	onDisc  func(err error)
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, log *zap.SugaredLogger) *Client {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.TopicIn,
		GroupID: cfg.GroupID,
	})
	var w *kafka.Writer
	if cfg.TopicOut != "" {
		w = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.TopicOut,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return &Client{reader: r, writer: w, log: log}
}

func (c *Client) Subscribe(h transport.Handler)   { c.mu.Lock(); c.handler = h; c.mu.Unlock() }
func (c *Client) OnConnected(fn func())           { c.mu.Lock(); c.onConn = fn; c.mu.Unlock() }
func (c *Client) OnDisconnected(fn func(e error)) { c.mu.Lock(); c.onDisc = fn; c.mu.Unlock() }

// Connect starts the consume loop. The consumer group remembers our
// offset, so a restart resumes where the previous session stopped.
func (c *Client) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	onConn := c.onConn
	c.mu.Unlock()

	if onConn != nil {
		onConn()
	}
	c.wg.Add(1)
	go c.run(runCtx)
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			c.mu.Lock()
			onDisc := c.onDisc
			closed := c.closed
			c.mu.Unlock()
			if ctx.Err() != nil || closed {
				return
			}
			if onDisc != nil {
				onDisc(err)
			}
			c.log.Errorw("kafka read", "err", err)
			time.Sleep(time.Second)
			continue
		}
		env, err := transport.DecodeEnvelope(m.Value)
		if err != nil || env.Event == "" {
			c.log.Debugw("dropping malformed frame", "offset", m.Offset, "err", err)
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

func (c *Client) Emit(event string, payload any) error {
	if c.writer == nil {
		return nil
	}
	frame, err := transport.EncodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.writer.WriteMessages(ctx, kafka.Message{Value: frame})
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := c.reader.Close()
	if c.writer != nil {
		if werr := c.writer.Close(); err == nil {
			err = werr
		}
	}
	c.wg.Wait()
	return err
}

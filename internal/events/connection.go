package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrNoChannel = errors.New("amqp: no channel available")

const maxRetryDelay = 30 * time.Second

// Connection owns one AMQP connection and a confirm-mode channel. A
// background watcher reopens the channel when the broker closes it and
// redials when the whole connection drops.
type Connection struct {
	url        string
	logger     *slog.Logger
	retryDelay time.Duration

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed   bool
	closedCh chan struct{}
}

func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Connection{
		url:        url,
		logger:     logger,
		retryDelay: time.Second,
		closedCh:   make(chan struct{}),
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	go c.watch()

	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := openConfirmChannel(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.channel = ch

	c.logger.Info("amqp.connected")
	return nil
}

func openConfirmChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	return ch, nil
}

// restore reopens just the channel while the connection is alive and
// redials otherwise.
func (c *Connection) restore() error {
	c.mu.Lock()
	conn := c.conn
	if conn != nil && !conn.IsClosed() {
		defer c.mu.Unlock()

		ch, err := openConfirmChannel(conn)
		if err != nil {
			return err
		}
		c.channel = ch
		c.logger.Info("amqp.channel_reopened")
		return nil
	}
	c.mu.Unlock()

	return c.connect()
}

func (c *Connection) watch() {
	for {
		c.mu.RLock()
		if c.closed {
			c.mu.RUnlock()
			return
		}
		conn, ch := c.conn, c.channel
		c.mu.RUnlock()

		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case err := <-connClosed:
			if err != nil {
				c.logger.Warn("amqp.connection_closed", "err", err)
			}
		case err := <-chClosed:
			if err != nil {
				c.logger.Warn("amqp.channel_closed", "err", err)
			}
		}

		c.retry(c.restore)
	}
}

// retry runs step with capped exponential backoff until it succeeds or the
// connection is closed.
func (c *Connection) retry(step func() error) {
	delay := c.retryDelay

	for {
		select {
		case <-c.closedCh:
			return
		case <-time.After(delay):
		}

		if err := step(); err != nil {
			c.logger.Warn("amqp.reconnect_failed", "err", err, "retry_in", delay.String())
			delay = min(delay*2, maxRetryDelay)
			continue
		}

		return
	}
}

// WithChannel runs fn against the current channel.
func (c *Connection) WithChannel(_ context.Context, fn func(ch *amqp.Channel) error) error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return ErrNoChannel
	}

	return fn(ch)
}

func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.closedCh)

	var errs []error

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	return errors.Join(errs...)
}

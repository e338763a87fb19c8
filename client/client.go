// Package client implements the EdgeLink device client.
//
// The client opens an outbound-only connection to the cloud broker and
// exchanges pub/sub frames on it. Cloud APIs, such as server-side RPC, are
// registered as [API] implementations: the client routes inbound publishes
// to them in delivery order and drives their resubscription after a
// reconnect.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/edgelink-io/edgelink/pkg/backoff"
	"github.com/edgelink-io/edgelink/pkg/log"
	"github.com/edgelink-io/edgelink/pkg/pubsub"
)

const (
	// defaultURL is the URL of the broker when running locally.
	defaultURL = "ws://localhost:8933"

	minReconnectBackoff = time.Millisecond * 100
	maxReconnectBackoff = time.Second * 15
)

// API is a cloud API implementation fed by the client.
//
// ProcessJSON is invoked from the client's single receive loop, one message
// at a time in delivery order, so implementations need no internal locking
// as long as they are only driven by the client.
type API interface {
	// HandlesTopic reports whether the API consumes messages published on
	// the given topic.
	HandlesTopic(topic string) bool

	// ProcessJSON handles a decoded message delivered on the given topic.
	ProcessJSON(topic string, data map[string]interface{})

	// Resubscribe restores the API's topic subscriptions after the client
	// reconnects.
	Resubscribe() bool
}

// Client is a device client for the EdgeLink broker.
//
// Subscriptions may be made before the client is running or connected; they
// are recorded and replayed once a connection is established, and again
// after every reconnect.
type Client struct {
	options options

	// sessionID identifies this client session to the broker.
	sessionID string

	// mu guards conn and subscriptions.
	mu            sync.Mutex
	conn          *pubsub.Conn
	subscriptions map[string]struct{}

	// apis contains the registered API implementations. Registration must
	// happen before Run; the receive loop reads apis without a lock.
	apis []API

	closed *atomic.Bool

	logger *log.Logger
}

// New creates a device client. The client does not connect until Run is
// called.
func New(opts ...Option) *Client {
	options := options{
		url:    defaultURL,
		logger: log.NewNopLogger(),
	}
	for _, o := range opts {
		o.apply(&options)
	}

	return &Client{
		options:       options,
		sessionID:     uuid.New().String(),
		subscriptions: make(map[string]struct{}),
		closed:        atomic.NewBool(false),
		logger:        options.logger.WithSubsystem("client"),
	}
}

// Register adds the given API implementation. Must be called before Run.
func (c *Client) Register(api API) {
	c.apis = append(c.apis, api)
}

// SessionID returns the identifier for this client session.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connected reports whether the client currently has a broker connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Subscribe requests a subscription to the given topic filter.
//
// If the client is not connected the subscription is recorded and made once
// a connection is established, so subscribing before Run or during a
// reconnect is safe. Subscribing to the same filter twice is idempotent.
func (c *Client) Subscribe(filter string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscriptions[filter] = struct{}{}
	if c.conn == nil {
		// Deferred until the next connect.
		return true
	}
	if err := c.conn.Send(pubsub.Message{
		Type:  pubsub.MessageTypeSubscribe,
		Topic: filter,
	}); err != nil {
		c.logger.Warn(
			"failed to subscribe",
			zap.String("filter", filter),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Unsubscribe removes the subscription to the given topic filter.
func (c *Client) Unsubscribe(filter string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.subscriptions, filter)
	if c.conn == nil {
		return true
	}
	if err := c.conn.Send(pubsub.Message{
		Type:  pubsub.MessageTypeUnsubscribe,
		Topic: filter,
	}); err != nil {
		c.logger.Warn(
			"failed to unsubscribe",
			zap.String("filter", filter),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Publish publishes the payload on the given topic. Publishing requires a
// connection; there is no outbound queueing, per the platform's
// at-most-once delivery.
func (c *Client) Publish(topic string, payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.logger.Debug(
			"dropping publish; not connected",
			zap.String("topic", topic),
		)
		return false
	}
	if err := c.conn.Send(pubsub.Message{
		Type:    pubsub.MessageTypePublish,
		Topic:   topic,
		Payload: payload,
	}); err != nil {
		c.logger.Warn(
			"failed to publish",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Run connects to the broker and processes inbound messages until the
// context is cancelled or the client is closed.
//
// After the initial connection succeeds the client reconnects after any
// transient error, replaying its subscriptions and resubscribing the
// registered APIs.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() {
				return nil
			}
			return err
		}

		c.mu.Lock()
		c.conn = conn
		pending := make([]string, 0, len(c.subscriptions))
		for filter := range c.subscriptions {
			pending = append(pending, filter)
		}
		c.mu.Unlock()

		for _, filter := range pending {
			if err := conn.Send(pubsub.Message{
				Type:  pubsub.MessageTypeSubscribe,
				Topic: filter,
			}); err != nil {
				c.logger.Warn(
					"failed to replay subscription",
					zap.String("filter", filter),
					zap.Error(err),
				)
			}
		}
		for _, api := range c.apis {
			// The broker treats repeated subscriptions as one, so an
			// API re-requesting a replayed filter is harmless.
			api.Resubscribe()
		}

		err = c.receive(ctx, conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if ctx.Err() != nil || c.closed.Load() {
			return nil
		}
		c.logger.Warn("disconnected; reconnecting", zap.Error(err))
	}
}

// Close closes the client and any open connection. Run returns once the
// receive loop observes the closed connection.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) connect(ctx context.Context) (*pubsub.Conn, error) {
	backoff := backoff.New(0, minReconnectBackoff, maxReconnectBackoff)
	for {
		conn, err := pubsub.Dial(
			ctx,
			c.options.url,
			pubsub.WithToken(c.options.token),
			pubsub.WithSessionID(c.sessionID),
			pubsub.WithTLSConfig(c.options.tlsConfig),
		)
		if err == nil {
			c.logger.Debug("connected", zap.String("url", c.options.url))
			return conn, nil
		}

		var retryableError *pubsub.RetryableError
		if !errors.As(err, &retryableError) {
			c.logger.Error(
				"failed to connect to broker; non-retryable",
				zap.String("url", c.options.url),
				zap.Error(err),
			)
			return nil, err
		}

		c.logger.Warn(
			"failed to connect to broker; retrying",
			zap.String("url", c.options.url),
			zap.Error(err),
		)

		if !backoff.Wait(ctx) {
			return nil, ctx.Err()
		}
	}
}

func (c *Client) receive(ctx context.Context, conn *pubsub.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		m, err := conn.Receive()
		if err != nil {
			return err
		}
		if m.Type != pubsub.MessageTypePublish {
			continue
		}
		c.route(m)
	}
}

// route delivers an inbound publish to the first registered API handling
// its topic. Routing runs on the receive loop so messages are dispatched
// strictly in delivery order, one at a time.
func (c *Client) route(m pubsub.Message) {
	for _, api := range c.apis {
		if !api.HandlesTopic(m.Topic) {
			continue
		}

		var data map[string]interface{}
		if err := json.Unmarshal(m.Payload, &data); err != nil {
			c.logger.Debug(
				"dropping malformed message",
				zap.String("topic", m.Topic),
				zap.Error(err),
			)
			return
		}
		api.ProcessJSON(m.Topic, data)
		return
	}

	c.logger.Debug(
		"no api registered for topic",
		zap.String("topic", m.Topic),
	)
}

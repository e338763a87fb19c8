package pubsub

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// retryableStatusCodes contains a set of HTTP status codes that should be
// retried.
var retryableStatusCodes = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// RetryableError indicates a transient dial error, such as the broker being
// temporarily unavailable, where the client should back off and retry.
type RetryableError struct {
	err error
}

func NewRetryableError(err error) *RetryableError {
	return &RetryableError{err}
}

func (e *RetryableError) Unwrap() error {
	return e.err
}

func (e *RetryableError) Error() string {
	return e.err.Error()
}

type dialOptions struct {
	token     string
	sessionID string
	tlsConfig *tls.Config
}

type DialOption interface {
	apply(*dialOptions)
}

type tokenOption string

func (o tokenOption) apply(opts *dialOptions) {
	opts.token = string(o)
}

// WithToken authenticates the connection with the given device access token.
func WithToken(token string) DialOption {
	return tokenOption(token)
}

type sessionIDOption string

func (o sessionIDOption) apply(opts *dialOptions) {
	opts.sessionID = string(o)
}

// WithSessionID identifies the client session to the broker.
func WithSessionID(id string) DialOption {
	return sessionIDOption(id)
}

type tlsConfigOption struct {
	TLSConfig *tls.Config
}

func (o tlsConfigOption) apply(opts *dialOptions) {
	opts.tlsConfig = o.TLSConfig
}

func WithTLSConfig(config *tls.Config) DialOption {
	return tlsConfigOption{TLSConfig: config}
}

// Conn is a pub/sub broker connection exchanging JSON frames over a
// WebSocket.
type Conn struct {
	wsConn *websocket.Conn
}

func New(wsConn *websocket.Conn) *Conn {
	return &Conn{
		wsConn: wsConn,
	}
}

// Dial connects to the pub/sub broker at the given WebSocket URL.
//
// Transient failures are reported as a [RetryableError] so the caller can
// back off and retry.
func Dial(ctx context.Context, url string, opts ...DialOption) (*Conn, error) {
	options := dialOptions{}
	for _, o := range opts {
		o.apply(&options)
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: 60 * time.Second,
	}

	header := make(http.Header)
	if options.token != "" {
		header.Set("Authorization", "Bearer "+options.token)
	}
	if options.sessionID != "" {
		header.Set("X-Edgelink-Session", options.sessionID)
	}

	if options.tlsConfig != nil {
		dialer.TLSClientConfig = options.tlsConfig
	}

	wsConn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			if _, ok := retryableStatusCodes[resp.StatusCode]; ok {
				return nil, NewRetryableError(err)
			}
			return nil, fmt.Errorf("%d: %w", resp.StatusCode, err)
		}
		// No response means the broker could not be reached at all, such
		// as a connection refused, which is always worth retrying.
		return nil, NewRetryableError(err)
	}
	return New(wsConn), nil
}

// Send writes the given frame to the connection.
//
// Send must not be called concurrently with itself.
func (c *Conn) Send(m Message) error {
	if err := c.wsConn.WriteJSON(&m); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Receive blocks until the next frame arrives.
func (c *Conn) Receive() (Message, error) {
	var m Message
	if err := c.wsConn.ReadJSON(&m); err != nil {
		return Message{}, fmt.Errorf("read frame: %w", err)
	}
	return m, nil
}

func (c *Conn) Close() error {
	return c.wsConn.Close()
}

package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink-io/edgelink/client"
	"github.com/edgelink-io/edgelink/pkg/jsondoc"
	"github.com/edgelink-io/edgelink/pkg/log"
	"github.com/edgelink-io/edgelink/pkg/pubsub"
	"github.com/edgelink-io/edgelink/pkg/rpc"
)

// fakeBroker is an in-process pub/sub broker accepting WebSocket
// connections and recording the frames each client sends.
type fakeBroker struct {
	server *httptest.Server

	frames chan pubsub.Message
	conns  chan *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newFakeBroker() *fakeBroker {
	b := &fakeBroker{
		frames: make(chan pubsub.Message, 64),
		conns:  make(chan *websocket.Conn, 4),
	}
	upgrader := websocket.Upgrader{}
	b.server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			b.conns <- conn
			for {
				var m pubsub.Message
				if err := conn.ReadJSON(&m); err != nil {
					return
				}
				b.frames <- m
			}
		},
	))
	return b
}

func (b *fakeBroker) URL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func (b *fakeBroker) NextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-b.conns:
		return conn
	case <-time.After(time.Second * 5):
		t.Fatal("timeout waiting for connection")
		return nil
	}
}

func (b *fakeBroker) NextFrame(t *testing.T) pubsub.Message {
	t.Helper()
	select {
	case m := <-b.frames:
		return m
	case <-time.After(time.Second * 5):
		t.Fatal("timeout waiting for frame")
		return pubsub.Message{}
	}
}

// NextPublish returns the next publish frame, skipping subscription
// frames. The client may subscribe to the same filter more than once after
// connecting (the replayed subscription plus the API resubscription), which
// the broker treats as one.
func (b *fakeBroker) NextPublish(t *testing.T) pubsub.Message {
	t.Helper()
	for {
		m := b.NextFrame(t)
		if m.Type == pubsub.MessageTypePublish {
			return m
		}
	}
}

func (b *fakeBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.server.Close()
	}
}

func TestClient_SubscribeBeforeConnect(t *testing.T) {
	broker := newFakeBroker()
	defer broker.Close()

	c := client.New(client.WithURL(broker.URL()))
	defer c.Close()

	// Subscribing before the client is running must be recorded and
	// replayed once connected.
	assert.True(t, c.Subscribe("v1/devices/me/rpc/request/+"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.Run(ctx)
	}()

	m := broker.NextFrame(t)
	assert.Equal(t, pubsub.MessageTypeSubscribe, m.Type)
	assert.Equal(t, "v1/devices/me/rpc/request/+", m.Topic)
}

func TestClient_PublishRequiresConnection(t *testing.T) {
	c := client.New()
	defer c.Close()

	assert.False(t, c.Publish("v1/devices/me/telemetry", []byte(`{"temp":21.5}`)))
}

func TestClient_ResubscribeAfterReconnect(t *testing.T) {
	broker := newFakeBroker()
	defer broker.Close()

	c := client.New(client.WithURL(broker.URL()))
	defer c.Close()

	srv := rpc.New(rpc.Capabilities{
		Subscribe:   c.Subscribe,
		Unsubscribe: c.Unsubscribe,
		PublishJSON: func(topic string, payload []byte, _ int) bool {
			return c.Publish(topic, payload)
		},
	}, log.NewNopLogger())
	srv.Subscribe(rpc.Callback{
		Method:  "getTemp",
		Handler: func(_ interface{}, resp *jsondoc.Document) { resp.Set("temp", 21.5) },
	})
	c.Register(srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.Run(ctx)
	}()

	conn := broker.NextConn(t)
	m := broker.NextFrame(t)
	assert.Equal(t, pubsub.MessageTypeSubscribe, m.Type)
	assert.Equal(t, rpc.SubscribeTopic, m.Topic)

	// Drop the connection; the client must reconnect and subscribe
	// again.
	conn.Close()

	broker.NextConn(t)
	m = broker.NextFrame(t)
	assert.Equal(t, pubsub.MessageTypeSubscribe, m.Type)
	assert.Equal(t, rpc.SubscribeTopic, m.Topic)
}

// The full path: an RPC request published by the broker is dispatched to
// the subscribed callback and the response is published on the correlated
// response topic.
func TestClient_RPCRoundTrip(t *testing.T) {
	broker := newFakeBroker()
	defer broker.Close()

	c := client.New(client.WithURL(broker.URL()))
	defer c.Close()

	srv := rpc.New(rpc.Capabilities{
		Subscribe:   c.Subscribe,
		Unsubscribe: c.Unsubscribe,
		PublishJSON: func(topic string, payload []byte, _ int) bool {
			return c.Publish(topic, payload)
		},
	}, log.NewNopLogger())
	srv.Subscribe(rpc.Callback{
		Method:  "getTemp",
		Handler: func(_ interface{}, resp *jsondoc.Document) { resp.Set("temp", 21.5) },
	})
	c.Register(srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = c.Run(ctx)
	}()

	conn := broker.NextConn(t)
	// Wait for the subscription before sending the request.
	broker.NextFrame(t)

	require.NoError(t, conn.WriteJSON(&pubsub.Message{
		Type:    pubsub.MessageTypePublish,
		Topic:   "v1/devices/me/rpc/request/3",
		Payload: []byte(`{"method":"getTemp"}`),
	}))

	m := broker.NextPublish(t)
	assert.Equal(t, "v1/devices/me/rpc/response/3", m.Topic)
	assert.JSONEq(t, `{"temp":21.5}`, string(m.Payload))
}

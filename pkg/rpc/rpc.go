// Package rpc implements the server-side RPC API of the EdgeLink device
// client.
//
// The cloud sends RPC requests addressed to the device on the
// 'v1/devices/me/rpc/request/+' topic. Each request names a method and
// optional parameters, and expects a response published on the correlated
// 'v1/devices/me/rpc/response/<id>' topic.
//
// The package is decoupled from the transport through a small set of
// injected capabilities, so callbacks can be subscribed before a broker
// connection exists. The surrounding client replays the topic subscription
// once connected and again after every reconnect.
package rpc

import (
	"strings"

	"go.uber.org/zap"

	"github.com/edgelink-io/edgelink/pkg/log"
)

// Capabilities are the transport functions the RPC API depends on. They are
// set once at construction and never reassigned.
type Capabilities struct {
	// Subscribe requests a subscription to the given topic filter.
	// Subscribing must be safe when no broker connection exists, in which
	// case the transport records the filter and subscribes once
	// connected.
	Subscribe func(filter string) bool

	// Unsubscribe removes the subscription to the given topic filter.
	Unsubscribe func(filter string) bool

	// PublishJSON publishes the serialized document on the given topic.
	// The serialized length is passed so the transport does not measure
	// the document again.
	PublishJSON func(topic string, payload []byte, size int) bool

	// RequestID extracts the numeric request id from the trailing path
	// segment of the topic under the given prefix. Defaults to
	// [ParseRequestID] when nil.
	RequestID func(prefix string, topic string) (uint64, bool)
}

// ServerRPC dispatches server-side RPC requests to subscribed callbacks.
//
// ServerRPC is not safe for concurrent use. Subscribe, Unsubscribe,
// Resubscribe and ProcessJSON must all be driven from the client's single
// message loop, which also guarantees requests are dispatched strictly in
// delivery order.
type ServerRPC struct {
	caps Capabilities

	store callbackStore

	metrics *Metrics

	logger *log.Logger
}

// New creates the server-side RPC API with the given transport
// capabilities.
func New(caps Capabilities, logger *log.Logger) *ServerRPC {
	if caps.RequestID == nil {
		caps.RequestID = ParseRequestID
	}
	return &ServerRPC{
		caps:    caps,
		store:   newCallbackStore(),
		metrics: newMetrics(),
		logger:  logger.WithSubsystem("rpc"),
	}
}

// Subscribe registers the given callbacks and requests the request topic
// subscription.
//
// Safe to call before a broker connection exists: the transport subscribes
// once connected.
//
// In the static capacity build, a batch that would exceed MaxCallbacks is
// rejected whole without registering any of its callbacks.
func (s *ServerRPC) Subscribe(callbacks ...Callback) bool {
	if !s.store.append(callbacks) {
		s.logger.Error(
			"too many server-side rpc subscriptions",
			zap.Int("max", s.store.capacity()),
		)
		return false
	}
	// Idempotent; the broker treats repeated subscriptions to the same
	// filter as one.
	s.caps.Subscribe(SubscribeTopic)
	return true
}

// Unsubscribe removes all registered callbacks and the request topic
// subscription. The registry is always cleared; the return value is the
// transport unsubscribe result.
func (s *ServerRPC) Unsubscribe() bool {
	s.store.clear()
	return s.caps.Unsubscribe(SubscribeTopic)
}

// Resubscribe re-requests the request topic subscription after a
// reconnect. Callbacks stay registered across reconnects so there is
// nothing else to restore.
func (s *ServerRPC) Resubscribe() bool {
	if s.store.size() == 0 {
		return true
	}
	if !s.caps.Subscribe(SubscribeTopic) {
		s.logger.Warn(
			"subscribe failed for topic",
			zap.String("topic", SubscribeTopic),
		)
		return false
	}
	return true
}

// Size returns the number of registered callbacks.
func (s *ServerRPC) Size() int {
	return s.store.size()
}

// Metrics returns the RPC metrics for registration.
func (s *ServerRPC) Metrics() *Metrics {
	return s.metrics
}

// HandlesTopic reports whether the topic carries a server-side RPC request.
func (s *ServerRPC) HandlesTopic(topic string) bool {
	return strings.HasPrefix(topic, RequestTopic)
}

// ProcessJSON dispatches the decoded request received on the given topic.
//
// The first registered callback matching the method name is invoked with
// the request parameters and a fresh response document. A null document
// means no response is sent; an overflowed document is dropped with a
// warning; otherwise the response is published on the topic correlated to
// the request id. At most one response is published per request.
func (s *ServerRPC) ProcessJSON(topic string, data map[string]interface{}) {
	method, ok := data["method"].(string)
	if !ok {
		// Not an error: devices routinely share subscriptions with
		// non-RPC shaped messages.
		s.logger.Debug("server-side rpc method name is missing")
		return
	}
	s.metrics.RequestsTotal.Inc()

	callbacks := s.store.callbacks()
	for i := range callbacks {
		cb := &callbacks[i]
		if !cb.Matches(method) {
			continue
		}

		params, ok := data["params"]
		if !ok {
			s.logger.Debug("no parameters passed with rpc, passing null")
		}

		s.logger.Debug(
			"calling subscribed callback",
			zap.String("method", method),
		)

		doc := newResponseDoc(cb)
		cb.Handler(params, doc)

		if doc.IsNull() {
			// Fire and forget: the handler chose not to respond.
			s.logger.Debug("response document is null, skipping send")
			s.metrics.DroppedTotal.WithLabelValues("no_response").Inc()
			return
		}
		if doc.Overflowed() {
			s.logger.Warn(
				"server-side rpc response overflowed, increase the maximum response fields",
				zap.Int("max", doc.Limit()),
			)
			s.metrics.DroppedTotal.WithLabelValues("overflow").Inc()
			return
		}

		requestID, ok := s.caps.RequestID(RequestTopic, topic)
		if !ok {
			s.logger.Debug(
				"invalid request id in topic",
				zap.String("topic", topic),
			)
			s.metrics.DroppedTotal.WithLabelValues("bad_request_id").Inc()
			return
		}

		payload, err := doc.MarshalJSON()
		if err != nil {
			s.logger.Warn(
				"failed to serialize rpc response",
				zap.Error(err),
			)
			s.metrics.DroppedTotal.WithLabelValues("serialize").Inc()
			return
		}

		s.caps.PublishJSON(ResponseTopic(requestID), payload, len(payload))
		s.metrics.ResponsesTotal.Inc()
		return
	}

	// Unmatched methods are not errors: devices commonly receive RPCs for
	// methods they do not implement.
	s.metrics.DroppedTotal.WithLabelValues("unmatched").Inc()
}

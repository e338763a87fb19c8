// Package pubsub contains the wire protocol for the EdgeLink topic pub/sub
// transport, which frames messages as JSON over a WebSocket connection.
package pubsub

import "encoding/json"

// MessageType identifies the pub/sub frame type.
type MessageType string

const (
	// MessageTypeSubscribe requests a subscription to a topic filter.
	MessageTypeSubscribe MessageType = "subscribe"
	// MessageTypeUnsubscribe removes a subscription to a topic filter.
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	// MessageTypePublish delivers a payload on a topic, in either
	// direction.
	MessageTypePublish MessageType = "publish"
)

// Message is a single pub/sub frame.
type Message struct {
	Type MessageType `json:"type"`

	// Topic is the topic a payload is published on, or the topic filter
	// being subscribed or unsubscribed.
	Topic string `json:"topic"`

	// Payload is the published message body. Only set for publish frames.
	Payload json.RawMessage `json:"payload,omitempty"`
}

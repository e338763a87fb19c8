package rpc

import (
	"strconv"
	"strings"
)

const (
	// SubscribeTopic is the wildcard topic filter covering all server-side
	// RPC requests addressed to the device.
	SubscribeTopic = "v1/devices/me/rpc/request/+"

	// RequestTopic is the topic prefix of inbound RPC requests. The
	// trailing path segment carries the request id.
	RequestTopic = "v1/devices/me/rpc/request/"

	// responseTopicPrefix is the topic prefix responses are published on,
	// followed by the originating request id.
	responseTopicPrefix = "v1/devices/me/rpc/response/"
)

// ParseRequestID extracts the numeric request id from the trailing path
// segment of a topic under the given prefix.
func ParseRequestID(prefix string, topic string) (uint64, bool) {
	suffix, ok := strings.CutPrefix(topic, prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ResponseTopic formats the topic a response to the given request id is
// published on.
func ResponseTopic(requestID uint64) string {
	return responseTopicPrefix + strconv.FormatUint(requestID, 10)
}

package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequestID(t *testing.T) {
	tests := []struct {
		topic string
		id    uint64
		ok    bool
	}{
		{"v1/devices/me/rpc/request/7", 7, true},
		{"v1/devices/me/rpc/request/0", 0, true},
		{"v1/devices/me/rpc/request/18446744073709551615", 18446744073709551615, true},
		{"v1/devices/me/rpc/request/", 0, false},
		{"v1/devices/me/rpc/request/abc", 0, false},
		{"v1/devices/me/rpc/request/-1", 0, false},
		{"v1/devices/me/rpc/response/7", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, ok := ParseRequestID(RequestTopic, tt.topic)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestResponseTopic(t *testing.T) {
	assert.Equal(t, "v1/devices/me/rpc/response/7", ResponseTopic(7))
	assert.Equal(t, "v1/devices/me/rpc/response/0", ResponseTopic(0))
}

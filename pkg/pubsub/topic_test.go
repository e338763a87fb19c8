package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		match  bool
	}{
		{"v1/devices/me/rpc/request/+", "v1/devices/me/rpc/request/7", true},
		{"v1/devices/me/rpc/request/+", "v1/devices/me/rpc/request/", true},
		{"v1/devices/me/rpc/request/+", "v1/devices/me/rpc/response/7", false},
		{"v1/devices/me/rpc/request/+", "v1/devices/me/rpc/request/7/extra", false},
		{"v1/devices/me/rpc/request/+", "v1/devices/me/rpc/request", false},
		{"v1/devices/me/#", "v1/devices/me/rpc/request/7", true},
		{"v1/devices/me/#", "v1/devices/other/rpc/request/7", false},
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "a/b", false},
		{"a/+/c", "a/b/c", true},
		{"a/+/c", "a/b/d", false},
		{"#", "anything/at/all", true},
	}
	for _, tt := range tests {
		t.Run(tt.filter+" "+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.match, Match(tt.filter, tt.topic))
		})
	}
}

package rpc

import (
	"strings"

	"github.com/edgelink-io/edgelink/pkg/jsondoc"
)

// Handler is invoked with the request parameters (decoded JSON, or nil when
// the request carried no params) and the response document to populate.
//
// Leaving the document null signals no response should be sent.
type Handler func(params interface{}, resp *jsondoc.Document)

// Callback subscribes a handler to server-side RPC requests for a method.
type Callback struct {
	// Method is the method name the callback subscribes to. A callback
	// with an empty method name is never matched.
	Method string

	// Handler is called for each matching request.
	Handler Handler

	// ResponseFields hints the maximum number of fields the handler
	// writes to its response document. Only used by the dynamic capacity
	// build; <= 0 means unbounded. The static capacity build sizes every
	// response document with MaxResponseFields instead.
	ResponseFields int
}

// Matches reports whether the incoming method name selects this callback.
//
// Matching only compares the registered name's length of leading bytes, so
// a callback registered for "get" also matches an incoming method
// "getTemperature". This mirrors the platform's original device clients and
// deployed integrations rely on it, so it is deliberately not tightened to
// an exact comparison.
func (c *Callback) Matches(method string) bool {
	if c.Method == "" {
		return false
	}
	return strings.HasPrefix(method, c.Method)
}

//go:build staticrpc

package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgelink-io/edgelink/pkg/jsondoc"
	"github.com/edgelink-io/edgelink/pkg/log"
)

func TestServerRPC_Subscribe_CapacityExceeded(t *testing.T) {
	transport := newFakeTransport()
	srv := New(transport.Capabilities(), log.NewNopLogger())

	var full []Callback
	for i := 0; i < MaxCallbacks; i++ {
		full = append(full, Callback{
			Method:  "method",
			Handler: func(_ interface{}, _ *jsondoc.Document) {},
		})
	}
	assert.True(t, srv.Subscribe(full...))
	assert.Equal(t, MaxCallbacks, srv.Size())

	// A batch exceeding the capacity is rejected whole without mutating
	// the registry.
	assert.False(t, srv.Subscribe(Callback{
		Method:  "extra",
		Handler: func(_ interface{}, _ *jsondoc.Document) {},
	}))
	assert.Equal(t, MaxCallbacks, srv.Size())
}

func TestServerRPC_Subscribe_BatchRejectedAtomically(t *testing.T) {
	transport := newFakeTransport()
	srv := New(transport.Capabilities(), log.NewNopLogger())

	var batch []Callback
	for i := 0; i < MaxCallbacks+1; i++ {
		batch = append(batch, Callback{
			Method:  "method",
			Handler: func(_ interface{}, _ *jsondoc.Document) {},
		})
	}
	assert.False(t, srv.Subscribe(batch...))
	assert.Equal(t, 0, srv.Size())
	// The topic subscription is not requested for a rejected batch.
	assert.Empty(t, transport.subscribed)
}

func TestStaticStore_ResponseFieldsBound(t *testing.T) {
	transport := newFakeTransport()
	srv := New(transport.Capabilities(), log.NewNopLogger())

	// The static build bounds every response with MaxResponseFields,
	// ignoring the callback's own hint.
	srv.Subscribe(Callback{
		Method: "getState",
		Handler: func(_ interface{}, resp *jsondoc.Document) {
			for i := 0; i <= MaxResponseFields; i++ {
				resp.Set(string(rune('a'+i)), i)
			}
		},
		ResponseFields: MaxResponseFields + 10,
	})

	srv.ProcessJSON("v1/devices/me/rpc/request/1", map[string]interface{}{
		"method": "getState",
	})
	assert.Empty(t, transport.published)
}

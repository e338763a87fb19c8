//go:build !staticrpc

package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgelink-io/edgelink/pkg/jsondoc"
	"github.com/edgelink-io/edgelink/pkg/log"
)

func TestDynamicStore_ResponseFieldsHint(t *testing.T) {
	t.Run("overflowed response dropped", func(t *testing.T) {
		transport := newFakeTransport()
		srv := New(transport.Capabilities(), log.NewNopLogger())

		srv.Subscribe(Callback{
			Method: "getState",
			Handler: func(_ interface{}, resp *jsondoc.Document) {
				resp.Set("a", 1)
				resp.Set("b", 2)
			},
			ResponseFields: 1,
		})

		srv.ProcessJSON("v1/devices/me/rpc/request/2", map[string]interface{}{
			"method": "getState",
		})
		assert.Empty(t, transport.published)
	})

	t.Run("no hint means unbounded", func(t *testing.T) {
		transport := newFakeTransport()
		srv := New(transport.Capabilities(), log.NewNopLogger())

		srv.Subscribe(Callback{
			Method: "getState",
			Handler: func(_ interface{}, resp *jsondoc.Document) {
				for i := 0; i < 32; i++ {
					resp.Set(string(rune('a'+i)), i)
				}
			},
		})

		srv.ProcessJSON("v1/devices/me/rpc/request/2", map[string]interface{}{
			"method": "getState",
		})
		require.Len(t, transport.published, 1)
	})
}

func TestDynamicStore_UnboundedRegistrations(t *testing.T) {
	transport := newFakeTransport()
	srv := New(transport.Capabilities(), log.NewNopLogger())

	for i := 0; i < 100; i++ {
		assert.True(t, srv.Subscribe(Callback{
			Method:  "method",
			Handler: func(_ interface{}, _ *jsondoc.Document) {},
		}))
	}
	assert.Equal(t, 100, srv.Size())
}

//go:build staticrpc

package rpc

import "github.com/edgelink-io/edgelink/pkg/jsondoc"

const (
	// MaxCallbacks is the maximum number of simultaneous server-side RPC
	// subscriptions in the static capacity build. Raise it at build time
	// if the deployment registers more methods.
	MaxCallbacks = 8

	// MaxResponseFields is the maximum number of fields a handler may
	// write to its response document in the static capacity build.
	MaxResponseFields = 8
)

// staticStore backs the registry with a fixed-size array so the worst case
// memory usage is known at build time. Batches that would exceed
// MaxCallbacks are rejected whole.
type staticStore struct {
	cbs [MaxCallbacks]Callback
	n   int
}

func newCallbackStore() callbackStore {
	return &staticStore{}
}

func (s *staticStore) append(callbacks []Callback) bool {
	if s.n+len(callbacks) > MaxCallbacks {
		return false
	}
	for _, cb := range callbacks {
		s.cbs[s.n] = cb
		s.n++
	}
	return true
}

func (s *staticStore) callbacks() []Callback {
	return s.cbs[:s.n]
}

func (s *staticStore) clear() {
	s.n = 0
}

func (s *staticStore) size() int {
	return s.n
}

func (s *staticStore) capacity() int {
	return MaxCallbacks
}

// newResponseDoc allocates the response document for a dispatch. The static
// build ignores the callback's own hint and bounds every response with
// MaxResponseFields.
func newResponseDoc(_ *Callback) *jsondoc.Document {
	return jsondoc.New(MaxResponseFields)
}

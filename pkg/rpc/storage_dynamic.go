//go:build !staticrpc

package rpc

import "github.com/edgelink-io/edgelink/pkg/jsondoc"

// dynamicStore backs the registry with a growable slice. Registrations are
// unbounded and each response document is sized from the callback's own
// hint.
type dynamicStore struct {
	cbs []Callback
}

func newCallbackStore() callbackStore {
	return &dynamicStore{}
}

func (s *dynamicStore) append(callbacks []Callback) bool {
	s.cbs = append(s.cbs, callbacks...)
	return true
}

func (s *dynamicStore) callbacks() []Callback {
	return s.cbs
}

func (s *dynamicStore) clear() {
	s.cbs = nil
}

func (s *dynamicStore) size() int {
	return len(s.cbs)
}

func (s *dynamicStore) capacity() int {
	return -1
}

// newResponseDoc allocates the response document for a dispatch to the
// given callback.
func newResponseDoc(cb *Callback) *jsondoc.Document {
	return jsondoc.New(cb.ResponseFields)
}

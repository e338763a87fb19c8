package rpc

// callbackStore holds the registered callbacks.
//
// The static and dynamic capacity builds each provide one concrete
// implementation, selected with the 'staticrpc' build tag, so the
// dispatcher never branches on the capacity mode at runtime.
type callbackStore interface {
	// append adds the given callbacks preserving order. Returns false,
	// without mutating the store, if the batch would exceed the store's
	// capacity.
	append(callbacks []Callback) bool

	// callbacks returns the registered callbacks in insertion order. The
	// returned slice must not be mutated and is only valid until the next
	// append or clear.
	callbacks() []Callback

	// clear removes all registered callbacks.
	clear()

	// size returns the number of registered callbacks.
	size() int

	// capacity returns the maximum number of callbacks, or -1 if
	// unbounded.
	capacity() int
}

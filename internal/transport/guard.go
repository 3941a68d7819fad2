package transport

import "sync"

// guard serializes handler invocations with teardown for one subscription.
// The handler runs with mu held; close takes mu, so it waits out any
// in-flight invocation and blocks all later ones.
type guard struct {
	mu      sync.Mutex
	closed  bool
	handler Handler
}

func (g *guard) deliver(msg Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.handler(msg)
}

func (g *guard) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

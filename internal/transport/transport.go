// Package transport delivers raw stream payloads to the logger.
//
// Unsubscribe is a barrier: when it returns, any handler invocation that was
// running for that subscription has finished, and no further invocation will
// start. Handlers for different subscriptions may run concurrently.
package transport

// Message is a raw payload received on a subject.
type Message struct {
	Subject string
	Data    []byte
}

// Handler is invoked for each message received on a subscription.
type Handler func(Message)

// Subscription is an active binding of a handler to a subject.
type Subscription interface {
	Subject() string
	Unsubscribe() error
}

// Transport subscribes handlers to subjects and publishes raw payloads.
type Transport interface {
	Subscribe(subject string, h Handler) (Subscription, error)
	Publish(subject string, data []byte) error
	Close() error
}

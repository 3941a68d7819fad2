package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/transport"
)

// ErrActive is returned by Activate when the set already holds bindings.
var ErrActive = errors.New("subscription set already active")

// SubscriptionError reports that subscribing to one stream failed. No
// subscriptions remain active when it is returned.
type SubscriptionError struct {
	Stream string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscribing to stream %q: %v", e.Stream, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// Binding pairs a registered stream with its live subscription.
type Binding struct {
	Stream model.Stream
	Sub    transport.Subscription
}

// DeliverFunc receives each payload tagged with the stream it arrived on.
type DeliverFunc func(stream model.Stream, msg transport.Message)

// SubscriptionSet owns the subscriptions for one session.
type SubscriptionSet struct {
	transport transport.Transport
	prefix    string

	mu       sync.Mutex
	bindings []Binding
}

// NewSubscriptionSet returns an empty set that subscribes on t. Each stream
// is subscribed on the subject prefix + name.
func NewSubscriptionSet(t transport.Transport, prefix string) *SubscriptionSet {
	return &SubscriptionSet{transport: t, prefix: prefix}
}

// Subject returns the transport subject for stream.
func (s *SubscriptionSet) Subject(stream string) string {
	return s.prefix + stream
}

// Activate subscribes to every stream in order. It is all-or-nothing: if any
// subscription fails, those already made are torn down and a
// *SubscriptionError is returned.
func (s *SubscriptionSet) Activate(ctx context.Context, streams []model.Stream, deliver DeliverFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.bindings) > 0 {
		return ErrActive
	}

	bindings := make([]Binding, 0, len(streams))
	for _, st := range streams {
		err := ctx.Err()
		var sub transport.Subscription
		if err == nil {
			stream := st
			sub, err = s.transport.Subscribe(s.Subject(st.Name), func(msg transport.Message) {
				deliver(stream, msg)
			})
		}
		if err != nil {
			unsubscribeAll(bindings)
			return &SubscriptionError{Stream: st.Name, Err: err}
		}
		bindings = append(bindings, Binding{Stream: st, Sub: sub})
	}

	s.bindings = bindings
	return nil
}

// Deactivate unsubscribes every binding. When it returns no handler from
// this set is running and none will run again. Calling it on an empty set
// is a no-op.
func (s *SubscriptionSet) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := unsubscribeAll(s.bindings)
	s.bindings = nil
	return err
}

// Len returns the number of active subscriptions.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

// Bindings returns a copy of the active bindings in registration order.
func (s *SubscriptionSet) Bindings() []Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Binding(nil), s.bindings...)
}

func unsubscribeAll(bindings []Binding) error {
	var errs []error
	for _, b := range bindings {
		if err := b.Sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribing %q: %w", b.Stream.Name, err))
		}
	}
	return errors.Join(errs...)
}

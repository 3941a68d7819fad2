package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS is a Transport backed by a NATS connection.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to NATS with automatic reconnection support.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be appended.
func NewNATS(url string, opts ...nats.Option) (*NATS, error) {
	defaults := []nats.Option{
		nats.Name("synclog"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATS{conn: nc}, nil
}

// Subscribe registers h on subject. The subscription is flushed to the
// server before Subscribe returns, so messages published on other
// connections afterwards are routed to it.
func (n *NATS) Subscribe(subject string, h Handler) (Subscription, error) {
	g := &guard{handler: h}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		g.deliver(Message{Subject: msg.Subject, Data: msg.Data})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := n.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		g.close()
		return nil, fmt.Errorf("flushing subscription %s: %w", subject, err)
	}
	return &natsSubscription{sub: sub, guard: g}, nil
}

// Publish sends data on subject.
func (n *NATS) Publish(subject string, data []byte) error {
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Flush blocks until the server has processed everything published so far.
func (n *NATS) Flush() error {
	return n.conn.Flush()
}

// Close closes the connection.
func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}

type natsSubscription struct {
	sub   *nats.Subscription
	guard *guard
	once  sync.Once
	err   error
}

func (s *natsSubscription) Subject() string { return s.sub.Subject }

// Unsubscribe removes interest on the server, then waits for any running
// handler to return. Safe to call more than once.
func (s *natsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			s.err = fmt.Errorf("unsubscribing from %s: %w", s.sub.Subject, err)
		}
		s.guard.close()
	})
	return s.err
}

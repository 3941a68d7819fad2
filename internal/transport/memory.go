package transport

import (
	"errors"
	"sync"
)

// ErrClosed is returned when using a closed Memory transport.
var ErrClosed = errors.New("transport closed")

// Memory is an in-process Transport. Publish invokes matching handlers
// synchronously on the publisher's goroutine, so concurrent publishers give
// concurrent deliveries.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[*memorySubscription]struct{})}
}

// Subscribe registers h on subject (exact match).
func (m *Memory) Subscribe(subject string, h Handler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	s := &memorySubscription{bus: m, subject: subject, guard: &guard{handler: h}}
	if m.subs[subject] == nil {
		m.subs[subject] = make(map[*memorySubscription]struct{})
	}
	m.subs[subject][s] = struct{}{}
	return s, nil
}

// Publish delivers data to every subscriber of subject.
func (m *Memory) Publish(subject string, data []byte) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*memorySubscription, 0, len(m.subs[subject]))
	for s := range m.subs[subject] {
		targets = append(targets, s)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.guard.deliver(Message{Subject: subject, Data: buf})
	}
	return nil
}

// Subscribers returns the number of live subscriptions on subject.
func (m *Memory) Subscribers(subject string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[subject])
}

// Total returns the number of live subscriptions across all subjects.
func (m *Memory) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.subs {
		n += len(set)
	}
	return n
}

// Close drops every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	all := m.subs
	m.subs = make(map[string]map[*memorySubscription]struct{})
	m.closed = true
	m.mu.Unlock()

	for _, set := range all {
		for s := range set {
			s.guard.close()
		}
	}
	return nil
}

func (m *Memory) remove(s *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set := m.subs[s.subject]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(m.subs, s.subject)
		}
	}
}

type memorySubscription struct {
	bus     *Memory
	subject string
	guard   *guard
	once    sync.Once
}

func (s *memorySubscription) Subject() string { return s.subject }

func (s *memorySubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.remove(s)
		s.guard.close()
	})
	return nil
}

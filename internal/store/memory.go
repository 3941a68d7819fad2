package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// Memory is an in-process Store. It is the default when no database is
// configured, so /v1/sessions still reports sessions run since startup.
type Memory struct {
	mu       sync.RWMutex
	sessions []*model.SessionSummary
	byID     map[string]*model.SessionSummary
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*model.SessionSummary)}
}

func (m *Memory) RecordSessionStart(_ context.Context, s *model.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Streams = slices.Clone(s.Streams)
	cp.StoppedAt = nil
	m.sessions = append(m.sessions, &cp)
	m.byID[cp.ID] = &cp
	return nil
}

func (m *Memory) RecordSessionStop(_ context.Context, id string, stoppedAt time.Time, records int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	at := stoppedAt
	s.StoppedAt = &at
	s.RecordCount = records
	s.StopReason = reason
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*model.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *Memory) ListSessions(_ context.Context, limit int) ([]*model.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.SessionSummary, 0, len(m.sessions))
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, clone(m.sessions[i]))
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

func clone(s *model.SessionSummary) *model.SessionSummary {
	cp := *s
	cp.Streams = slices.Clone(s.Streams)
	if s.StoppedAt != nil {
		at := *s.StoppedAt
		cp.StoppedAt = &at
	}
	return &cp
}

// Package store defines the session index: a durable record of every logging
// session the daemon has run, independent of the CSV files themselves.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// ErrNotFound is returned when a session ID is not in the index.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for session summaries.
type Store interface {
	// RecordSessionStart inserts a new session row. StoppedAt is ignored.
	RecordSessionStart(ctx context.Context, s *model.SessionSummary) error

	// RecordSessionStop marks a session stopped with its final row count.
	RecordSessionStop(ctx context.Context, id string, stoppedAt time.Time, records int64, reason string) error

	GetSession(ctx context.Context, id string) (*model.SessionSummary, error)

	// ListSessions returns the most recent sessions first. limit <= 0 means all.
	ListSessions(ctx context.Context, limit int) ([]*model.SessionSummary, error)

	Close() error
}

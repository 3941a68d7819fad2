package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// Event topic constants
const (
	TopicSessionStarted = "synclog.session.started"
	TopicSessionStopped = "synclog.session.stopped"
	TopicSessionAborted = "synclog.session.aborted"
)

// Event types

type SessionStarted struct {
	SessionID      string         `json:"session_id"`
	SinkIdentifier string         `json:"sink_identifier"`
	Streams        []model.Stream `json:"streams"`
	StartedAt      time.Time      `json:"started_at"`
}

type SessionStopped struct {
	SessionID      string    `json:"session_id"`
	SinkIdentifier string    `json:"sink_identifier"`
	RecordCount    int64     `json:"record_count"`
	StoppedAt      time.Time `json:"stopped_at"`
}

// SessionAborted is published when a session is torn down because its sink
// failed mid-session.
type SessionAborted struct {
	SessionID      string    `json:"session_id"`
	SinkIdentifier string    `json:"sink_identifier"`
	Reason         string    `json:"reason"`
	StoppedAt      time.Time `json:"stopped_at"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

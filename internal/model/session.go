package model

import "time"

// State is the logging state of the process-wide session.
type State string

const (
	StateDisabled State = "disabled"
	StateEnabled  State = "enabled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// SessionInfo is a point-in-time view of the logging session.
type SessionInfo struct {
	ID             string     `json:"id,omitempty"`
	State          State      `json:"state"`
	SinkIdentifier string     `json:"sink_identifier"`
	Streams        []Stream   `json:"streams,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	RecordCount    int64      `json:"record_count"`
	DroppedCount   int64      `json:"dropped_count"`

	Liveness []StreamLiveness `json:"liveness,omitempty"`
}

// StreamLiveness reports how recently a registered stream delivered a value.
type StreamLiveness struct {
	Stream     string     `json:"stream"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	IdleSecs   float64    `json:"idle_secs"`
	ValueCount int64      `json:"value_count"`
	DropCount  int64      `json:"drop_count"`
	Stale      bool       `json:"stale,omitempty"`
}

// SessionSummary is a persisted entry in the session index.
type SessionSummary struct {
	ID             string     `json:"id"`
	SinkIdentifier string     `json:"sink_identifier"`
	Streams        []string   `json:"streams"`
	StartedAt      time.Time  `json:"started_at"`
	StoppedAt      *time.Time `json:"stopped_at,omitempty"`
	RecordCount    int64      `json:"record_count"`
	StopReason     string     `json:"stop_reason,omitempty"`
}

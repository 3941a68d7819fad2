package session

import (
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/sink"
)

// Sink is where a session's header and records are written.
type Sink interface {
	Identifier() string
	WriteHeader(streams []string) error
	Append(rec model.Record) error
	Close() error
	Remove() error
}

// SinkFactory opens a new sink for a session starting at now.
type SinkFactory func(now time.Time) (Sink, error)

// FileSinks returns a factory that creates CSV files in dir.
func FileSinks(dir string) SinkFactory {
	return func(now time.Time) (Sink, error) {
		s, err := sink.Open(dir, now)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Package aggregator joins values from independently-timed streams into
// synchronized records.
//
// The policy is "latest value per stream, emit once every stream has one":
// a value arriving for a stream that already has an unflushed value
// overwrites it, and the record is flushed by whichever stream completes the
// set. The record rate therefore follows the slowest active stream.
package aggregator

import (
	"fmt"
	"sync"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// UnknownStreamError is returned by Ingest for a stream that is not in the
// current registry. Callers drop the value and continue.
type UnknownStreamError struct {
	Stream string
}

func (e *UnknownStreamError) Error() string {
	return fmt.Sprintf("unknown stream %q", e.Stream)
}

// FlushFunc receives each completed record. It runs while the aggregator lock
// is held, so records reach it one at a time in timestamp order.
type FlushFunc func(model.Record) error

// Aggregator buffers the most recent value per registered stream.
type Aggregator struct {
	mu      sync.Mutex
	streams []string
	index   map[string]int
	pending map[string]string
	last    time.Time
	flushed int64
	flush   FlushFunc
}

// New returns an aggregator with no registry. Ingest is a no-op until
// Configure is called. flush may be nil.
func New(flush FlushFunc) *Aggregator {
	return &Aggregator{flush: flush}
}

// Configure installs the ordered stream registry and clears any buffered
// values. Duplicate names collapse to their first position.
func (a *Aggregator) Configure(streams []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.streams = make([]string, 0, len(streams))
	a.index = make(map[string]int, len(streams))
	for _, s := range streams {
		if _, dup := a.index[s]; dup {
			continue
		}
		a.index[s] = len(a.streams)
		a.streams = append(a.streams, s)
	}
	a.pending = make(map[string]string, len(a.streams))
	a.flushed = 0
}

// Reset drops the registry and any buffered values.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.streams = nil
	a.index = nil
	a.pending = nil
}

// Ingest records value for stream. If every registered stream now has a
// value, the completed record is stamped with now, passed to the flush func,
// the buffer is cleared, and the record is returned. Otherwise Ingest returns
// nil. Timestamps are strictly increasing across flushes at microsecond
// granularity even if the wall clock stalls or steps back.
func (a *Aggregator) Ingest(stream, value string, now time.Time) (*model.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.index == nil {
		return nil, nil
	}
	if _, ok := a.index[stream]; !ok {
		return nil, &UnknownStreamError{Stream: stream}
	}

	a.pending[stream] = value
	if len(a.streams) == 0 || len(a.pending) != len(a.streams) {
		return nil, nil
	}

	ts := now.Truncate(time.Microsecond)
	if !a.last.IsZero() && !ts.After(a.last) {
		ts = a.last.Add(time.Microsecond)
	}
	a.last = ts

	rec := model.Record{Timestamp: ts, Values: make([]string, len(a.streams))}
	for i, s := range a.streams {
		rec.Values[i] = a.pending[s]
	}
	clear(a.pending)
	a.flushed++

	if a.flush != nil {
		if err := a.flush(rec); err != nil {
			return &rec, fmt.Errorf("flushing record: %w", err)
		}
	}
	return &rec, nil
}

// Pending returns the number of streams holding an unflushed value.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Flushed returns the number of records completed since the last Configure.
func (a *Aggregator) Flushed() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushed
}

// Streams returns a copy of the current registry.
func (a *Aggregator) Streams() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.streams))
	copy(out, a.streams)
	return out
}

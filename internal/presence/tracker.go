// Package presence tracks per-stream liveness for the active session.
//
// The session controller calls Observe for every value delivered on a
// registered stream and Drop for values it could not use. A background
// reaper marks streams stale after a configurable idle threshold. Because a
// record only flushes once every stream has reported, a single stale stream
// stalls the whole log; the reaper logs it so operators can see why.
package presence

import (
	"log/slog"
	"sync"
	"time"

	clock "go.llib.dev/testcase/clock"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// ReaperConfig configures the background stale-stream reaper.
type ReaperConfig struct {
	// StaleAfter is how long a stream may go without a value before it is
	// marked stale. Default: 30 seconds.
	StaleAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: StaleAfter / 2.
	SweepInterval time.Duration

	// OnStale is called for each stream newly marked stale.
	// Called outside the lock.
	OnStale func(stream string, idle time.Duration)
}

// Tracker maintains liveness state for the registered streams.
type Tracker struct {
	mu      sync.RWMutex
	order   []string
	streams map[string]*streamState
	started time.Time
	dropped int64

	now func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type streamState struct {
	lastSeen time.Time
	values   int64
	drops    int64
	stale    bool
}

// New creates a tracker with no registered streams.
func New() *Tracker {
	return &Tracker{
		streams: make(map[string]*streamState),
		now:     clock.Now,
	}
}

// Reset replaces the tracked streams and zeroes all counters.
func (t *Tracker) Reset(streams []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = append([]string(nil), streams...)
	t.streams = make(map[string]*streamState, len(streams))
	for _, s := range streams {
		t.streams[s] = &streamState{}
	}
	t.started = t.now()
	t.dropped = 0
}

// Observe records a value received on stream. Unregistered streams are
// ignored.
func (t *Tracker) Observe(stream string) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.streams[stream]
	if !ok {
		return
	}
	if state.stale {
		slog.Info("presence: stream resumed", "stream", stream)
		state.stale = false
	}
	state.lastSeen = now
	state.values++
}

// Drop records a value that was discarded. stream may be unregistered.
func (t *Tracker) Drop(stream string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropped++
	if state, ok := t.streams[stream]; ok {
		state.drops++
	}
}

// Dropped returns the total number of discarded values since Reset.
func (t *Tracker) Dropped() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dropped
}

// Roster returns a snapshot of every tracked stream in registered order.
func (t *Tracker) Roster() []model.StreamLiveness {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	entries := make([]model.StreamLiveness, 0, len(t.order))
	for _, name := range t.order {
		state := t.streams[name]
		e := model.StreamLiveness{
			Stream:     name,
			ValueCount: state.values,
			DropCount:  state.drops,
			Stale:      state.stale,
		}
		since := t.started
		if !state.lastSeen.IsZero() {
			seen := state.lastSeen
			e.LastSeen = &seen
			since = seen
		}
		e.IdleSecs = now.Sub(since).Seconds()
		entries = append(entries, e)
	}
	return entries
}

// StartReaper launches a background goroutine that periodically marks idle
// streams as stale. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = cfg.StaleAfter / 2
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"stale_after", cfg.StaleAfter,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := t.now()

	type staleStream struct {
		name string
		idle time.Duration
	}
	var newlyStale []staleStream

	t.mu.Lock()
	for _, name := range t.order {
		state := t.streams[name]
		if state.stale {
			continue
		}
		since := state.lastSeen
		if since.IsZero() {
			since = t.started
		}
		if idle := now.Sub(since); idle > cfg.StaleAfter {
			state.stale = true
			newlyStale = append(newlyStale, staleStream{name: name, idle: idle})
		}
	}
	t.mu.Unlock()

	for _, s := range newlyStale {
		slog.Warn("presence: stream stale, records are not being flushed",
			"stream", s.name,
			"idle", s.idle)
		if cfg.OnStale != nil {
			cfg.OnStale(s.name, s.idle)
		}
	}
}

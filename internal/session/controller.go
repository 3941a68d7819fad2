// Package session runs logging sessions: it binds the registered streams to
// the transport, joins their values into records, and writes those records to
// a per-session sink.
//
// A Controller is either Disabled or Enabled. SetEnabled moves between the two
// and always returns the identifier of the current (or most recent) sink.
// Starting a session is all-or-nothing; if any step fails, everything already
// done is undone and the controller stays Disabled.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	clock "go.llib.dev/testcase/clock"

	"github.com/alfredjeanlab/synclog/internal/aggregator"
	"github.com/alfredjeanlab/synclog/internal/archive"
	"github.com/alfredjeanlab/synclog/internal/catalog"
	"github.com/alfredjeanlab/synclog/internal/decode"
	"github.com/alfredjeanlab/synclog/internal/events"
	"github.com/alfredjeanlab/synclog/internal/idgen"
	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/presence"
	"github.com/alfredjeanlab/synclog/internal/store"
	"github.com/alfredjeanlab/synclog/internal/streamlist"
	"github.com/alfredjeanlab/synclog/internal/transport"
)

// Stop reasons recorded in the session index.
const (
	ReasonRequested = "requested"
	ReasonShutdown  = "shutdown"
	ReasonAborted   = "aborted"
)

// errNoSink is returned by the flush path when a record completes while no
// session is active. The barrier in Deactivate makes this unreachable in
// practice.
var errNoSink = errors.New("no active sink")

// Config holds the collaborators of a Controller. Transport and StreamList
// are required; everything else has a usable default.
type Config struct {
	// StreamList is the path of the stream list file, re-read on every start.
	StreamList string

	// Catalog resolves stream types. Nil means every type is "unknown".
	Catalog catalog.Catalog

	Transport     transport.Transport
	SubjectPrefix string

	// Sinks opens the sink for a new session. Defaults to CSV files in the
	// system temp directory.
	Sinks SinkFactory

	Publisher events.Publisher
	Store     store.Store
	Archiver  *archive.Archiver
	Presence  *presence.Tracker

	// StaleAfter enables the liveness reaper when positive.
	StaleAfter time.Duration

	Logger *slog.Logger

	// Now returns the wall time used for record timestamps and sink names.
	Now func() time.Time
}

// active is the state the delivery path needs. It is swapped atomically so
// callbacks never take the controller lock.
type active struct {
	generation uint64
	sessionID  string
	sink       Sink
	records    atomic.Int64
	aborting   atomic.Bool
}

// Controller owns the single logging session of the process.
type Controller struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	subs     *SubscriptionSet
	agg      *aggregator.Aggregator
	presence *presence.Tracker

	mu         sync.Mutex
	state      model.State
	generation uint64
	sessionID  string
	identifier string
	streams    []model.Stream
	startedAt  time.Time
	lastCount  int64

	current atomic.Pointer[active]
	aborts  sync.WaitGroup
}

// NewController validates cfg and returns a Disabled controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if cfg.StreamList == "" {
		return nil, errors.New("session: stream list path is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Static(nil)
	}
	if cfg.Sinks == nil {
		cfg.Sinks = FileSinks("/tmp")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = &events.NoopPublisher{}
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Presence == nil {
		cfg.Presence = presence.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = clock.Now
	}

	c := &Controller{
		cfg:      cfg,
		logger:   cfg.Logger,
		now:      cfg.Now,
		subs:     NewSubscriptionSet(cfg.Transport, cfg.SubjectPrefix),
		presence: cfg.Presence,
		state:    model.StateDisabled,
	}
	c.agg = aggregator.New(c.flush)
	return c, nil
}

// SetEnabled requests logging on or off and returns the current sink
// identifier. Requests that match the current state are no-ops.
func (c *Controller) SetEnabled(ctx context.Context, enable bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case enable && c.state == model.StateEnabled:
		return c.identifier, nil
	case !enable && c.state == model.StateDisabled:
		return c.identifier, nil
	case enable:
		if err := c.startLocked(ctx); err != nil {
			return c.identifier, err
		}
		return c.identifier, nil
	default:
		err := c.stopLocked(ctx, ReasonRequested, nil)
		return c.identifier, err
	}
}

// Status returns a snapshot of the session.
func (c *Controller) Status() model.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := model.SessionInfo{
		ID:             c.sessionID,
		State:          c.state,
		SinkIdentifier: c.identifier,
		RecordCount:    c.lastCount,
	}
	if c.state == model.StateEnabled {
		started := c.startedAt
		info.StartedAt = &started
		info.Streams = append([]model.Stream(nil), c.streams...)
		if cur := c.current.Load(); cur != nil {
			info.RecordCount = cur.records.Load()
		}
		info.DroppedCount = c.presence.Dropped()
		info.Liveness = c.presence.Roster()
	}
	return info
}

// Sessions lists recent sessions from the index, newest first.
func (c *Controller) Sessions(ctx context.Context, limit int) ([]*model.SessionSummary, error) {
	return c.cfg.Store.ListSessions(ctx, limit)
}

// Close stops any active session and waits for pending aborts.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	var err error
	if c.state == model.StateEnabled {
		err = c.stopLocked(ctx, ReasonShutdown, nil)
	}
	c.mu.Unlock()

	c.aborts.Wait()
	return err
}

func (c *Controller) startLocked(ctx context.Context) error {
	names, err := streamlist.Load(c.cfg.StreamList)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		c.logger.Warn("stream list is empty, session will record no rows", "path", c.cfg.StreamList)
	}

	types, err := c.cfg.Catalog.Snapshot(ctx)
	if err != nil {
		c.logger.Warn("type catalog lookup failed, unresolved streams will be typed unknown", "err", err)
	}
	streams := make([]model.Stream, len(names))
	for i, name := range names {
		streams[i] = model.NewStream(name, types)
	}

	sessionID, err := idgen.Session()
	if err != nil {
		return err
	}

	startedAt := c.now()
	snk, err := c.cfg.Sinks(startedAt)
	if err != nil {
		return err
	}
	if err := snk.WriteHeader(names); err != nil {
		c.discardSink(snk)
		return err
	}

	c.generation++
	cur := &active{generation: c.generation, sessionID: sessionID, sink: snk}
	c.presence.Reset(names)
	c.agg.Configure(names)
	c.current.Store(cur)

	if err := c.subs.Activate(ctx, streams, c.deliver(cur)); err != nil {
		c.current.Store(nil)
		c.agg.Reset()
		c.presence.Reset(nil)
		c.discardSink(snk)
		return err
	}

	c.state = model.StateEnabled
	c.sessionID = sessionID
	c.identifier = snk.Identifier()
	c.streams = streams
	c.startedAt = startedAt
	c.lastCount = 0

	if c.cfg.StaleAfter > 0 {
		c.presence.StartReaper(&presence.ReaperConfig{StaleAfter: c.cfg.StaleAfter})
	}

	c.logger.Info("logging session started",
		"session", sessionID,
		"sink", c.identifier,
		"streams", len(streams))

	if err := c.cfg.Store.RecordSessionStart(ctx, &model.SessionSummary{
		ID:             sessionID,
		SinkIdentifier: c.identifier,
		Streams:        names,
		StartedAt:      startedAt,
	}); err != nil {
		c.logger.Error("recording session start", "session", sessionID, "err", err)
	}
	c.publish(ctx, events.TopicSessionStarted, events.SessionStarted{
		SessionID:      sessionID,
		SinkIdentifier: c.identifier,
		Streams:        streams,
		StartedAt:      startedAt,
	})
	return nil
}

// stopLocked tears the session down. cause is non-nil for forced aborts.
func (c *Controller) stopLocked(ctx context.Context, reason string, cause error) error {
	subsErr := c.subs.Deactivate()
	c.agg.Reset()
	c.presence.Stop()

	cur := c.current.Swap(nil)
	var closeErr error
	if cur != nil {
		closeErr = cur.sink.Close()
		c.lastCount = cur.records.Load()
	}

	stoppedAt := c.now()
	c.state = model.StateDisabled
	c.streams = nil

	c.logger.Info("logging session stopped",
		"session", c.sessionID,
		"sink", c.identifier,
		"records", c.lastCount,
		"reason", reason)

	if err := c.cfg.Store.RecordSessionStop(ctx, c.sessionID, stoppedAt, c.lastCount, reason); err != nil {
		c.logger.Error("recording session stop", "session", c.sessionID, "err", err)
	}

	if cause != nil {
		c.publish(ctx, events.TopicSessionAborted, events.SessionAborted{
			SessionID:      c.sessionID,
			SinkIdentifier: c.identifier,
			Reason:         cause.Error(),
			StoppedAt:      stoppedAt,
		})
	} else {
		c.publish(ctx, events.TopicSessionStopped, events.SessionStopped{
			SessionID:      c.sessionID,
			SinkIdentifier: c.identifier,
			RecordCount:    c.lastCount,
			StoppedAt:      stoppedAt,
		})
	}

	if closeErr == nil && c.cfg.Archiver.Enabled() {
		c.cfg.Archiver.Enqueue(archive.Job{SessionID: c.sessionID, Path: c.identifier})
	}

	return errors.Join(subsErr, closeErr)
}

// deliver returns the per-message callback for one session.
func (c *Controller) deliver(cur *active) DeliverFunc {
	return func(stream model.Stream, msg transport.Message) {
		value, err := decode.Value(stream.Type, msg.Data)
		if err != nil {
			c.presence.Drop(stream.Name)
			c.logger.Debug("dropping undecodable value", "stream", stream.Name, "err", err)
			return
		}
		c.presence.Observe(stream.Name)

		_, err = c.agg.Ingest(stream.Name, value, c.now())
		var unknown *aggregator.UnknownStreamError
		switch {
		case err == nil:
		case errors.As(err, &unknown):
			c.presence.Drop(stream.Name)
			c.logger.Debug("dropping value for unregistered stream", "stream", stream.Name)
		default:
			c.logger.Error("sink write failed, aborting session",
				"session", cur.sessionID,
				"sink", cur.sink.Identifier(),
				"err", err)
			c.abortAsync(cur, err)
		}
	}
}

// flush appends a completed record to the active sink. It runs under the
// aggregator lock.
func (c *Controller) flush(rec model.Record) error {
	cur := c.current.Load()
	if cur == nil {
		return errNoSink
	}
	if err := cur.sink.Append(rec); err != nil {
		return err
	}
	cur.records.Add(1)
	return nil
}

// abortAsync tears the session down from outside the delivery callback,
// which cannot unsubscribe itself. Only the first failure per session
// schedules an abort, and an abort for an older generation is ignored.
func (c *Controller) abortAsync(cur *active, cause error) {
	if !cur.aborting.CompareAndSwap(false, true) {
		return
	}
	c.aborts.Add(1)
	go func() {
		defer c.aborts.Done()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != model.StateEnabled || c.generation != cur.generation {
			return
		}
		if err := c.stopLocked(context.Background(), ReasonAborted, cause); err != nil {
			c.logger.Warn("aborted session teardown", "session", cur.sessionID, "err", err)
		}
	}()
}

func (c *Controller) discardSink(s Sink) {
	if err := s.Remove(); err != nil {
		c.logger.Warn("removing sink after failed start", "sink", s.Identifier(), "err", err)
	}
}

func (c *Controller) publish(ctx context.Context, topic string, event any) {
	if err := c.cfg.Publisher.Publish(ctx, topic, event); err != nil {
		c.logger.Warn("publishing session event", "topic", topic, "err", err)
	}
}

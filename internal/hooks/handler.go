package hooks

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/alfredjeanlab/synclog/internal/events"
)

// Environment variables passed to the hook command.
const (
	EnvSessionID = "SYNCLOG_SESSION_ID"
	EnvSink      = "SYNCLOG_SINK"
	EnvRecords   = "SYNCLOG_RECORDS"
	EnvOutcome   = "SYNCLOG_OUTCOME"
	EnvReason    = "SYNCLOG_ABORT_REASON"
)

// Outcomes reported in EnvOutcome.
const (
	OutcomeStopped = "stopped"
	OutcomeAborted = "aborted"
)

// Publisher forwards every event to next and, for session stop and abort
// events, runs the hook command in the background. Hook failures are logged
// and never reach the session.
type Publisher struct {
	next    events.Publisher
	command string
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher wraps next. An empty command disables the hook.
func NewPublisher(next events.Publisher, command string, timeout time.Duration, logger *slog.Logger) *Publisher {
	if next == nil {
		next = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{next: next, command: command, timeout: timeout, logger: logger}
}

// Publish forwards the event, then schedules the hook if the event ends a
// session.
func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	err := p.next.Publish(ctx, topic, event)
	if env, ok := hookEnv(event); ok && p.command != "" {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(env)
		}()
	}
	return err
}

// Wait blocks until every scheduled hook has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

// Close waits for running hooks, then closes next.
func (p *Publisher) Close() error {
	p.wg.Wait()
	return p.next.Close()
}

func (p *Publisher) run(env map[string]string) {
	cwd := filepath.Dir(env[EnvSink])
	// Detached from the publishing context: the session that triggered the
	// hook is already gone.
	result := Execute(context.Background(), p.command, p.timeout, cwd, env)
	if result.Err != nil {
		p.logger.Warn("hooks: command failed",
			"session", env[EnvSessionID], "outcome", env[EnvOutcome], "err", result.Err, "output", result.Output)
		return
	}
	p.logger.Info("hooks: command finished", "session", env[EnvSessionID], "outcome", env[EnvOutcome])
	if result.Output != "" {
		p.logger.Debug("hooks: command output", "session", env[EnvSessionID], "output", result.Output)
	}
}

// hookEnv returns the hook environment for session-ending events.
func hookEnv(event any) (map[string]string, bool) {
	switch e := event.(type) {
	case events.SessionStopped:
		return map[string]string{
			EnvSessionID: e.SessionID,
			EnvSink:      e.SinkIdentifier,
			EnvRecords:   strconv.FormatInt(e.RecordCount, 10),
			EnvOutcome:   OutcomeStopped,
		}, true
	case *events.SessionStopped:
		return hookEnv(*e)
	case events.SessionAborted:
		return map[string]string{
			EnvSessionID: e.SessionID,
			EnvSink:      e.SinkIdentifier,
			EnvOutcome:   OutcomeAborted,
			EnvReason:    e.Reason,
		}, true
	case *events.SessionAborted:
		return hookEnv(*e)
	}
	return nil, false
}

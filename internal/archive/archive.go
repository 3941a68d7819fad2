// Package archive ships closed session files to long-term storage.
//
// When a session stops, the controller enqueues its CSV file. A single
// background worker compresses it and writes it to every configured
// Destination. Failures are logged and never affect the logging session:
// the local file is always left in place.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultQueueSize bounds the number of sessions waiting to be archived.
const DefaultQueueSize = 16

// DefaultTimeout bounds a single job across all destinations.
const DefaultTimeout = 5 * time.Minute

// Object is one compressed session file ready for upload.
type Object struct {
	SessionID   string
	Name        string
	ContentType string
	Data        []byte
}

// Destination is the interface for an archive target (S3, git, etc.).
type Destination interface {
	Write(ctx context.Context, obj Object) error
}

// Job identifies a closed session file.
type Job struct {
	SessionID string
	Path      string
}

// Archiver compresses closed session files and writes them to destinations
// on a background worker.
type Archiver struct {
	destinations []Destination
	compression  Compression
	timeout      time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	queue   chan Job
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates an archiver. queueSize <= 0 uses DefaultQueueSize.
func New(destinations []Destination, compression Compression, queueSize int, logger *slog.Logger) *Archiver {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		destinations: destinations,
		compression:  compression,
		timeout:      DefaultTimeout,
		logger:       logger,
		queue:        make(chan Job, queueSize),
	}
}

// Enabled reports whether any destination is configured.
func (a *Archiver) Enabled() bool {
	return a != nil && len(a.destinations) > 0
}

// Start launches the worker.
func (a *Archiver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.stopped {
		return
	}
	a.started = true

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.run()
	}()
}

// Stop closes the queue and waits for queued jobs to finish.
func (a *Archiver) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
}

// Enqueue schedules job without blocking. It returns false when archiving is
// disabled, the archiver is stopped, or the queue is full.
func (a *Archiver) Enqueue(job Job) bool {
	if !a.Enabled() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	select {
	case a.queue <- job:
		return true
	default:
		a.logger.Warn("archive queue full, dropping session", "session", job.SessionID, "path", job.Path)
		return false
	}
}

func (a *Archiver) run() {
	for job := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.Archive(ctx, job); err != nil {
			a.logger.Error("archive failed", "session", job.SessionID, "path", job.Path, "err", err)
		}
		cancel()
	}
}

// Archive compresses job.Path and writes it to every destination. It returns
// an error if the file cannot be read or if any destination fails; the
// remaining destinations are still attempted.
func (a *Archiver) Archive(ctx context.Context, job Job) error {
	f, err := os.Open(job.Path)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := Compress(&buf, f, a.compression); err != nil {
		return err
	}

	obj := Object{
		SessionID:   job.SessionID,
		Name:        filepath.Base(job.Path) + a.compression.Ext(),
		ContentType: a.compression.ContentType(),
		Data:        buf.Bytes(),
	}

	var failed int
	for _, dest := range a.destinations {
		if err := dest.Write(ctx, obj); err != nil {
			failed++
			a.logger.Error("archive destination write failed", "destination", fmt.Sprint(dest), "session", job.SessionID, "err", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d destinations failed", failed, len(a.destinations))
	}

	a.logger.Info("session archived", "session", job.SessionID, "object", obj.Name, "destinations", len(a.destinations), "bytes", len(obj.Data))
	return nil
}

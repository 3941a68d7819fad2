// Package sink writes synchronized records to a per-session CSV file.
//
// The file has a header row "timestamp,<stream1>,<stream2>,..." followed by
// one row per record. Fields are comma-separated and never escaped.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/synclog/internal/idgen"
	"github.com/alfredjeanlab/synclog/internal/model"
)

// FilePrefix and FileExt frame every sink file name.
const (
	FilePrefix = "data_log_"
	FileExt    = ".csv"
)

// UnavailableError reports a sink that could not be created or written.
type UnavailableError struct {
	Op   string
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("sink %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ErrHeaderWritten is returned by a second WriteHeader call.
var ErrHeaderWritten = errors.New("header already written")

// ErrNoHeader is returned by Append before WriteHeader.
var ErrNoHeader = errors.New("header not written")

// ErrClosed is returned when writing to a closed sink.
var ErrClosed = errors.New("sink closed")

// FileSink appends CSV rows to a file. All methods are safe for concurrent
// use; writes and Close are serialized.
type FileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	w      *bufio.Writer
	header bool
	rows   int64
	closed bool
}

// Open creates a new sink file in dir named after now's Unix seconds.
// If that name is taken (two sessions in the same second) a random suffix
// is added. The file is never truncated.
func Open(dir string, now time.Time) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &UnavailableError{Op: "open", Path: dir, Err: err}
	}

	base := FilePrefix + strconv.FormatInt(now.Unix(), 10)
	path := filepath.Join(dir, base+FileExt)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		suffix, idErr := idgen.WithPrefix("_")
		if idErr != nil {
			return nil, &UnavailableError{Op: "open", Path: path, Err: idErr}
		}
		path = filepath.Join(dir, base+suffix+FileExt)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return nil, &UnavailableError{Op: "open", Path: path, Err: err}
	}

	return &FileSink{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Identifier returns the sink's file path.
func (s *FileSink) Identifier() string {
	return s.path
}

// WriteHeader writes "timestamp" followed by each stream name. It must be
// called exactly once, before any Append.
func (s *FileSink) WriteHeader(streams []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.header {
		return ErrHeaderWritten
	}
	if err := s.writeLine(HeaderLine(streams)); err != nil {
		return err
	}
	s.header = true
	return nil
}

// Append writes one row for rec.
func (s *FileSink) Append(rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.header {
		return ErrNoHeader
	}
	if err := s.writeLine(RowLine(rec)); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of rows appended.
func (s *FileSink) Rows() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes buffered output and closes the file. Safe to call more
// than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.w.Flush()
	closeErr := s.file.Close()
	if flushErr != nil {
		return &UnavailableError{Op: "flush", Path: s.path, Err: flushErr}
	}
	if closeErr != nil {
		return &UnavailableError{Op: "close", Path: s.path, Err: closeErr}
	}
	return nil
}

// Remove closes the sink and deletes its file.
func (s *FileSink) Remove() error {
	_ = s.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing sink %s: %w", s.path, err)
	}
	return nil
}

// writeLine writes line and flushes it to the file so a crash loses at most
// the row being written. Caller holds s.mu.
func (s *FileSink) writeLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return &UnavailableError{Op: "write", Path: s.path, Err: err}
	}
	if err := s.w.Flush(); err != nil {
		return &UnavailableError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// HeaderLine formats the header row, including the trailing newline.
func HeaderLine(streams []string) string {
	var b strings.Builder
	b.WriteString("timestamp")
	for _, s := range streams {
		b.WriteByte(',')
		b.WriteString(s)
	}
	b.WriteByte('\n')
	return b.String()
}

// RowLine formats a record row, including the trailing newline.
func RowLine(rec model.Record) string {
	var b strings.Builder
	b.WriteString(model.EpochSeconds(rec.Timestamp))
	for _, v := range rec.Values {
		b.WriteByte(',')
		b.WriteString(v)
	}
	b.WriteByte('\n')
	return b.String()
}

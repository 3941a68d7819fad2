package archive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// mockDestination records calls to Write.
type mockDestination struct {
	mu   sync.Mutex
	objs []Object
	err  error
	done chan struct{}
}

func (d *mockDestination) Write(_ context.Context, obj Object) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objs = append(d.objs, obj)
	if d.done != nil {
		select {
		case d.done <- struct{}{}:
		default:
		}
	}
	return d.err
}

func (d *mockDestination) written() []Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Object(nil), d.objs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data_log_1760870400.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write session file: %v", err)
	}
	return path
}

func TestArchive_WritesCompressedObject(t *testing.T) {
	const content = "timestamp,a,b\n1760870400.000000,1,2\n"
	path := writeSession(t, content)
	dest := &mockDestination{}
	a := New([]Destination{dest}, CompressionZstd, 0, testLogger())

	if err := a.Archive(context.Background(), Job{SessionID: "ses-1", Path: path}); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	objs := dest.written()
	if len(objs) != 1 {
		t.Fatalf("expected 1 write, got %d", len(objs))
	}
	obj := objs[0]
	if obj.Name != "data_log_1760870400.csv.zst" || obj.SessionID != "ses-1" || obj.ContentType != "application/zstd" {
		t.Errorf("unexpected object: %+v", obj)
	}

	var out bytes.Buffer
	if err := Decompress(&out, bytes.NewReader(obj.Data), CompressionZstd); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if out.String() != content {
		t.Errorf("archived content = %q", out.String())
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("local file should be kept: %v", err)
	}
}

func TestArchive_PartialFailure(t *testing.T) {
	path := writeSession(t, "timestamp\n")
	bad := &mockDestination{err: errors.New("boom")}
	good := &mockDestination{}
	a := New([]Destination{bad, good}, CompressionNone, 0, testLogger())

	err := a.Archive(context.Background(), Job{SessionID: "ses-1", Path: path})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(good.written()) != 1 {
		t.Error("healthy destination should still be written")
	}
}

func TestArchive_MissingFile(t *testing.T) {
	a := New([]Destination{&mockDestination{}}, CompressionNone, 0, testLogger())
	if err := a.Archive(context.Background(), Job{Path: filepath.Join(t.TempDir(), "gone.csv")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestArchiverStartStop(t *testing.T) {
	path := writeSession(t, "timestamp,a\n1760870400.000000,1\n")
	dest := &mockDestination{done: make(chan struct{}, 1)}
	a := New([]Destination{dest}, CompressionLZ4, 0, testLogger())
	a.Start()

	if !a.Enqueue(Job{SessionID: "ses-1", Path: path}) {
		t.Fatal("Enqueue returned false")
	}

	select {
	case <-dest.done:
	case <-time.After(5 * time.Second):
		t.Fatal("archive job never ran")
	}
	a.Stop()

	if a.Enqueue(Job{SessionID: "ses-2", Path: path}) {
		t.Error("Enqueue after Stop should return false")
	}
	// Second Stop is a no-op.
	a.Stop()
}

func TestArchiver_StopDrainsQueue(t *testing.T) {
	path := writeSession(t, "timestamp\n")
	dest := &mockDestination{}
	a := New([]Destination{dest}, CompressionNone, 4, testLogger())

	for i := 0; i < 3; i++ {
		if !a.Enqueue(Job{SessionID: "ses", Path: path}) {
			t.Fatalf("Enqueue %d returned false", i)
		}
	}
	a.Start()
	a.Stop()

	if got := len(dest.written()); got != 3 {
		t.Fatalf("expected 3 writes after drain, got %d", got)
	}
}

func TestArchiver_QueueFull(t *testing.T) {
	a := New([]Destination{&mockDestination{}}, CompressionNone, 1, testLogger())
	if !a.Enqueue(Job{SessionID: "a"}) {
		t.Fatal("first Enqueue should fit")
	}
	if a.Enqueue(Job{SessionID: "b"}) {
		t.Fatal("second Enqueue should be dropped")
	}
}

func TestArchiver_Disabled(t *testing.T) {
	a := New(nil, CompressionZstd, 0, testLogger())
	if a.Enabled() {
		t.Fatal("archiver without destinations should be disabled")
	}
	if a.Enqueue(Job{SessionID: "a"}) {
		t.Fatal("Enqueue should be refused when disabled")
	}

	var nilArchiver *Archiver
	if nilArchiver.Enabled() || nilArchiver.Enqueue(Job{}) {
		t.Fatal("nil archiver should be inert")
	}
}

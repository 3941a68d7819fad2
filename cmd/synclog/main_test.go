package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/synclog/internal/client"
	"github.com/alfredjeanlab/synclog/internal/config"
	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/ui"
)

func TestMain(m *testing.M) {
	ui.ForceNoColor()
	os.Exit(m.Run())
}

func TestNewClient(t *testing.T) {
	saved := clientTransport
	t.Cleanup(func() { clientTransport = saved })

	tests := []struct {
		transport string
		wantHTTP  bool
		wantErr   bool
	}{
		{"http", true, false},
		{"grpc", false, false},
		{"carrier-pigeon", false, true},
	}
	for _, tt := range tests {
		clientTransport = tt.transport
		c, err := newClient()
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.transport)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.transport, err)
		}
		_, isHTTP := c.(*client.HTTPClient)
		if isHTTP != tt.wantHTTP {
			t.Errorf("%s: got %T", tt.transport, c)
		}
		c.Close()
	}
}

func TestColorizeHelpOutput_Patterns(t *testing.T) {
	help := "Logging:\n  start       Enable logging\n\nFlags:\n      --server string   gRPC server address (default \"localhost:9090\")\n"

	if !reGroupHeader.MatchString(help) {
		t.Error("group header not matched")
	}
	if m := reCommand.FindStringSubmatch(help); len(m) != 4 || m[2] != "start" {
		t.Errorf("command match = %q", m)
	}
	if m := reFlagType.FindStringSubmatch(help); len(m) != 3 || m[2] != "string" {
		t.Errorf("flag type match = %q", m)
	}
	if got := reDefault.FindString(help); got != `(default "localhost:9090")` {
		t.Errorf("default match = %q", got)
	}
	// Colors are off for the whole test binary.
	if got := colorizeHelpOutput(help); got != help {
		t.Errorf("colorizeHelpOutput changed plain text:\n%s", got)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug"}
	for _, format := range []string{"text", "json"} {
		if _, err := newLogger(cfg, format); err != nil {
			t.Errorf("%s: %v", format, err)
		}
	}
	if _, err := newLogger(cfg, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := newLogger(&config.Config{LogLevel: "loud"}, "text"); err == nil {
		t.Error("expected error for bad level")
	}
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		value string
		raw   bool
		want  string
	}{
		{"1.5", false, `{"data":"1.5"}`},
		{`say "hi"`, false, `{"data":"say \"hi\""}`},
		{`{"data": 3}`, true, `{"data": 3}`},
	}
	for _, tt := range tests {
		got, err := encodeValue(tt.value, tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != tt.want {
			t.Errorf("encodeValue(%q, %v) = %s, want %s", tt.value, tt.raw, got, tt.want)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	started := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	seen := started.Add(time.Second)
	info := &model.SessionInfo{
		ID:             "s-1",
		State:          model.StateEnabled,
		SinkIdentifier: "/tmp/data_log_1760868000.csv",
		Streams: []model.Stream{
			{Name: "a", Type: "std_msgs/Float64"},
			{Name: "b", Type: model.UnknownType},
		},
		StartedAt:    &started,
		RecordCount:  42,
		DroppedCount: 2,
		Liveness: []model.StreamLiveness{
			{Stream: "a", LastSeen: &seen, IdleSecs: 1.2, ValueCount: 50},
			{Stream: "b", IdleSecs: 45, DropCount: 2, Stale: true},
		},
	}

	var buf bytes.Buffer
	printStatus(&buf, info)
	out := buf.String()

	for _, want := range []string{
		"State:    enabled",
		"Session:  s-1",
		"Sink:     /tmp/data_log_1760868000.csv",
		"Records:  42",
		"Dropped:  2",
		"STREAM",
		"std_msgs/Float64",
		"45s stale",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatus_Disabled(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &model.SessionInfo{State: model.StateDisabled})
	out := buf.String()
	if !strings.Contains(out, "State:    disabled") || !strings.Contains(out, "Sink:     (none)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Records") {
		t.Errorf("disabled status should not show counts:\n%s", out)
	}
}

func TestPrintSessions(t *testing.T) {
	var buf bytes.Buffer
	printSessions(&buf, nil)
	if !strings.Contains(buf.String(), "No sessions recorded.") {
		t.Errorf("empty output = %q", buf.String())
	}

	stopped := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	buf.Reset()
	printSessions(&buf, []*model.SessionSummary{
		{ID: "s-2", SinkIdentifier: "/tmp/b.csv", StartedAt: stopped.Add(-time.Hour)},
		{ID: "s-1", SinkIdentifier: "/tmp/a.csv", StartedAt: stopped.Add(-2 * time.Hour), StoppedAt: &stopped, RecordCount: 9, StopReason: "requested"},
	})
	out := buf.String()
	for _, want := range []string{"s-2", "running", "s-1", "requested", "/tmp/a.csv", "2 sessions"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDaemon_InProcess(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "streams.txt")
	if err := os.WriteFile(list, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		StreamList:         list,
		OutputDir:          dir,
		SubjectPrefix:      "sensors.",
		LogLevel:           "info",
		ArchiveCompression: "zstd",
		Types:              map[string]string{"a": "std_msgs/Float64"},
		HookCommand:        `echo "$SYNCLOG_OUTCOME $SYNCLOG_RECORDS" > hook.out`,
		HookTimeout:        5 * time.Second,
	}
	logger, err := newLogger(cfg, "text")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	d, err := newDaemon(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("newDaemon: %v", err)
	}
	if d.archiver.Enabled() {
		t.Error("archiver should be disabled without destinations")
	}

	id, err := d.ctrl.SetEnabled(ctx, true)
	if err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if filepath.Dir(id) != dir {
		t.Errorf("sink %q not in %q", id, dir)
	}

	st := d.ctrl.Status()
	if st.Streams[0].Type != "std_msgs/Float64" || st.Streams[1].Type != model.UnknownType {
		t.Errorf("streams = %+v", st.Streams)
	}

	if err := d.transport.Publish("sensors.a", []byte(`{"data": 1.5}`)); err != nil {
		t.Fatal(err)
	}
	if err := d.transport.Publish("sensors.b", []byte(`ok`)); err != nil {
		t.Fatal(err)
	}

	if err := d.close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(id)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "timestamp,a,b" || !strings.HasSuffix(lines[1], ",1.5,ok") {
		t.Errorf("csv = %q", data)
	}

	hookOut, err := os.ReadFile(filepath.Join(dir, "hook.out"))
	if err != nil {
		t.Fatalf("post-session hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(hookOut)); got != "stopped 1" {
		t.Errorf("hook output = %q", got)
	}

	sessions, err := d.store.ListSessions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].StopReason != "shutdown" || sessions[0].RecordCount != 1 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestNewArchiver_BadCompression(t *testing.T) {
	cfg := &config.Config{ArchiveCompression: "bzip2"}
	if _, err := newArchiver(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestExecute_TimeoutKillsChildren(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	res := Execute(context.Background(), `sleep 30 & echo $! > "$PID_FILE"; wait`,
		200*time.Millisecond, "", map[string]string{"PID_FILE": pidFile})
	if res.Err == nil {
		t.Fatal("expected timeout error")
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse pid %q: %v", data, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if !running(pid) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("child %d still running after hook timeout", pid)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// running reports whether pid is alive. Zombies count as dead since an
// unreaping init may leave them behind.
func running(pid int) bool {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	// Field 3, after the parenthesised command name.
	i := strings.LastIndexByte(string(data), ')')
	if i < 0 || i+2 >= len(data) {
		return false
	}
	return data[i+2] != 'Z'
}

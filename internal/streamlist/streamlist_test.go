package streamlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  []string
	}{
		{"Empty", "", nil},
		{"Simple", "/a\n/b\n", []string{"/a", "/b"}},
		{"NoTrailingNewline", "/a\n/b", []string{"/a", "/b"}},
		{"CRLF", "/a\r\n/b\r\n", []string{"/a", "/b"}},
		{"BlankLines", "\n/a\n   \n\t\n/b\n\n", []string{"/a", "/b"}},
		{"InnerSpaces", " /robot/ imu \n", []string{"/robot/imu"}},
		{"Comments", "# topics\n/a\n  # indented\n", []string{"/a"}},
		{"Duplicates", "/a\n/b\n/a\n", []string{"/a", "/b"}},
		{"OrderPreserved", "z\ny\nx\n", []string{"z", "y", "x"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.txt")
	if err := os.WriteFile(path, []byte("/a\n/b\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Fatalf("unexpected streams: %v", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.txt")
	_, err := Load(path)

	var unreadable *UnreadableError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableError, got %v", err)
	}
	if unreadable.Path != path {
		t.Errorf("path = %q, want %q", unreadable.Path, path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	var unreadable *UnreadableError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableError for directory, got %v", err)
	}
}

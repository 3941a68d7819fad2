// Package streamlist reads the ordered list of stream names to synchronize.
//
// The format is plain text, one name per line. All whitespace inside a line
// is removed, blank lines and lines starting with '#' are skipped, and
// repeated names keep their first position.
package streamlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// UnreadableError reports a stream list that is missing or cannot be read.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("stream list %s unreadable: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

// Load reads the stream list at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	names, err := Parse(f)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	return names, nil
}

// Parse reads stream names from r.
func Parse(r io.Reader) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		name := stripSpace(sc.Text())
		if name == "" || strings.HasPrefix(name, "#") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning stream list: %w", err)
	}
	return names, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

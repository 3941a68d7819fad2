package model

import "strings"

// UnknownType is the type tag for a stream the catalog could not resolve.
const UnknownType = "unknown"

// Stream is a named, independently-timed source of values.
type Stream struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewStream returns a stream with its type resolved from types.
// A missing or blank entry resolves to UnknownType.
func NewStream(name string, types map[string]string) Stream {
	typ := strings.TrimSpace(types[name])
	if typ == "" {
		typ = UnknownType
	}
	return Stream{Name: name, Type: typ}
}

// StreamNames returns the names of streams in order.
func StreamNames(streams []Stream) []string {
	names := make([]string, len(streams))
	for i, s := range streams {
		names[i] = s.Name
	}
	return names
}

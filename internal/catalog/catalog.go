// Package catalog resolves stream names to advisory type tags.
//
// A catalog is consulted once per session start. Snapshot returns a plain
// map so per-stream lookups are constant time.
package catalog

import (
	"context"
	"maps"
)

// Catalog provides the stream name to type tag mapping.
type Catalog interface {
	Snapshot(ctx context.Context) (map[string]string, error)
}

// Static is a fixed in-memory catalog.
type Static map[string]string

// Snapshot returns a copy of the mapping.
func (s Static) Snapshot(_ context.Context) (map[string]string, error) {
	return maps.Clone(map[string]string(s)), nil
}

// Chain consults catalogs in order. Later catalogs fill names the earlier
// ones did not resolve. Errors are collected but do not stop the chain.
type Chain []Catalog

// Snapshot merges every catalog's mapping. It returns the merged mapping
// together with the first error encountered, if any.
func (c Chain) Snapshot(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	var firstErr error
	for _, cat := range c {
		m, err := cat.Snapshot(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for k, v := range m {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, firstErr
}

// Package idgen generates short, URL-safe identifiers for logging sessions
// and sink file suffixes, backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// SessionPrefix is prepended to every session ID.
const SessionPrefix = "ses-"

// Alphabet is lowercase alphanumerics so IDs are safe in file names on
// case-insensitive filesystems.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 10

// Session returns a new session ID.
func Session() (string, error) {
	return WithPrefix(SessionPrefix)
}

// WithPrefix returns a new ID with the given prefix.
func WithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}

package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/synclog/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanSession scans a single row into a model.SessionSummary.
// The row must contain columns in the order defined by sessionColumns.
func scanSession(row scannable) (*model.SessionSummary, error) {
	var (
		s          model.SessionSummary
		streams    []byte
		stoppedAt  sql.NullTime
		stopReason sql.NullString
	)
	err := row.Scan(
		&s.ID,
		&s.SinkIdentifier,
		&streams,
		&s.StartedAt,
		&stoppedAt,
		&s.RecordCount,
		&stopReason,
	)
	if err != nil {
		return nil, err
	}

	if len(streams) > 0 {
		if err := json.Unmarshal(streams, &s.Streams); err != nil {
			return nil, fmt.Errorf("unmarshal streams for %s: %w", s.ID, err)
		}
	}
	if stoppedAt.Valid {
		t := stoppedAt.Time
		s.StoppedAt = &t
	}
	s.StopReason = stopReason.String
	return &s, nil
}

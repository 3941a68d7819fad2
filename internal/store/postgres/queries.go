package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const sessionColumns = `id, sink_identifier, streams, started_at, stopped_at, record_count, stop_reason`

func queryInsertSession(ctx context.Context, db executor, s *model.SessionSummary) error {
	streams := s.Streams
	if streams == nil {
		streams = []string{}
	}
	streamsJSON, err := json.Marshal(streams)
	if err != nil {
		return fmt.Errorf("marshal streams: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (id, sink_identifier, streams, started_at)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.SinkIdentifier, streamsJSON, s.StartedAt,
	)
	return err
}

func queryStopSession(ctx context.Context, db executor, id string, stoppedAt time.Time, records int64, reason string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE sessions
		SET stopped_at = $2, record_count = $3, stop_reason = $4
		WHERE id = $1`,
		id, stoppedAt, records, nullString(reason),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryGetSession(ctx context.Context, db executor, id string) (*model.SessionSummary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func queryListSessions(ctx context.Context, db executor, limit int) ([]*model.SessionSummary, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SessionSummary
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
)

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	start := time.Unix(1760870400, 0).UTC()

	for _, id := range []string{"ses-1", "ses-2"} {
		err := m.RecordSessionStart(ctx, &model.SessionSummary{
			ID:             id,
			SinkIdentifier: "/tmp/data_log_" + id + ".csv",
			Streams:        []string{"a", "b"},
			StartedAt:      start,
		})
		if err != nil {
			t.Fatalf("RecordSessionStart(%s): %v", id, err)
		}
	}

	if err := m.RecordSessionStop(ctx, "ses-1", start.Add(time.Minute), 42, "requested"); err != nil {
		t.Fatalf("RecordSessionStop: %v", err)
	}

	got, err := m.GetSession(ctx, "ses-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.RecordCount != 42 || got.StopReason != "requested" || got.StoppedAt == nil {
		t.Errorf("unexpected stopped session: %+v", got)
	}

	list, err := m.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 || list[0].ID != "ses-2" || list[1].ID != "ses-1" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	list, _ = m.ListSessions(ctx, 1)
	if len(list) != 1 || list[0].ID != "ses-2" {
		t.Fatalf("limit not applied: %+v", list)
	}

	// Returned values are copies.
	list[0].Streams[0] = "mutated"
	again, _ := m.GetSession(ctx, "ses-2")
	if again.Streams[0] != "a" {
		t.Error("ListSessions leaked internal state")
	}
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetSession(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession: expected ErrNotFound, got %v", err)
	}
	if err := m.RecordSessionStop(ctx, "nope", time.Now(), 0, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordSessionStop: expected ErrNotFound, got %v", err)
	}
}

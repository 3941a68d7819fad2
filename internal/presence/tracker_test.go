package presence

import (
	"sync"
	"testing"
	"time"

	"go.llib.dev/testcase/clock/timecop"
)

// fakeNow returns a tracker whose clock is controlled by the returned setter.
func fakeNow(tr *Tracker, start time.Time) func(time.Duration) {
	var mu sync.Mutex
	cur := start
	tr.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	return func(d time.Duration) {
		mu.Lock()
		cur = cur.Add(d)
		mu.Unlock()
	}
}

var base = time.Unix(1760870400, 0)

func TestObserve_BasicTracking(t *testing.T) {
	tr := New()
	advance := fakeNow(tr, base)
	tr.Reset([]string{"a", "b"})

	advance(time.Second)
	tr.Observe("a")
	tr.Observe("a")
	advance(2 * time.Second)

	roster := tr.Roster()
	if len(roster) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(roster))
	}
	if roster[0].Stream != "a" || roster[1].Stream != "b" {
		t.Fatalf("roster not in registered order: %+v", roster)
	}
	if roster[0].ValueCount != 2 {
		t.Errorf("expected 2 values for a, got %d", roster[0].ValueCount)
	}
	if roster[0].LastSeen == nil || !roster[0].LastSeen.Equal(base.Add(time.Second)) {
		t.Errorf("unexpected last seen: %v", roster[0].LastSeen)
	}
	if roster[0].IdleSecs != 2 {
		t.Errorf("expected idle 2s for a, got %v", roster[0].IdleSecs)
	}
	if roster[1].LastSeen != nil || roster[1].IdleSecs != 3 {
		t.Errorf("unexpected entry for silent stream: %+v", roster[1])
	}
}

func TestObserve_IgnoresUnregistered(t *testing.T) {
	tr := New()
	tr.Reset([]string{"a"})
	tr.Observe("zzz")

	roster := tr.Roster()
	if len(roster) != 1 || roster[0].ValueCount != 0 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestDrop(t *testing.T) {
	tr := New()
	tr.Reset([]string{"a"})
	tr.Drop("a")
	tr.Drop("zzz")

	if tr.Dropped() != 2 {
		t.Fatalf("expected 2 drops, got %d", tr.Dropped())
	}
	if tr.Roster()[0].DropCount != 1 {
		t.Fatalf("expected 1 drop for a, got %d", tr.Roster()[0].DropCount)
	}
}

func TestReset_ClearsState(t *testing.T) {
	tr := New()
	tr.Reset([]string{"a"})
	tr.Observe("a")
	tr.Drop("a")

	tr.Reset([]string{"b"})
	roster := tr.Roster()
	if len(roster) != 1 || roster[0].Stream != "b" || roster[0].ValueCount != 0 {
		t.Fatalf("unexpected roster after reset: %+v", roster)
	}
	if tr.Dropped() != 0 {
		t.Fatalf("expected drops cleared, got %d", tr.Dropped())
	}
}

func TestSweep_MarksStale(t *testing.T) {
	tr := New()
	advance := fakeNow(tr, base)
	tr.Reset([]string{"fast", "slow"})

	var stale []string
	cfg := &ReaperConfig{
		StaleAfter: 10 * time.Second,
		OnStale:    func(stream string, _ time.Duration) { stale = append(stale, stream) },
	}

	advance(8 * time.Second)
	tr.Observe("fast")
	advance(5 * time.Second)
	tr.sweep(cfg)

	if len(stale) != 1 || stale[0] != "slow" {
		t.Fatalf("expected only slow stale, got %v", stale)
	}
	if !tr.Roster()[1].Stale {
		t.Fatal("expected slow marked stale")
	}

	// Already stale: no second callback.
	tr.sweep(cfg)
	if len(stale) != 1 {
		t.Fatalf("stale callback repeated: %v", stale)
	}

	// A value revives the stream.
	tr.Observe("slow")
	if tr.Roster()[1].Stale {
		t.Fatal("expected slow revived after Observe")
	}
}

func TestSweep_DefaultClock(t *testing.T) {
	timecop.Travel(t, base, timecop.Freeze)
	tr := New()
	tr.Reset([]string{"imu_accel"})

	cfg := &ReaperConfig{StaleAfter: 10 * time.Second}
	timecop.Travel(t, 9*time.Second, timecop.Freeze)
	tr.sweep(cfg)
	if tr.Roster()[0].Stale {
		t.Fatal("stale before threshold")
	}

	timecop.Travel(t, 2*time.Second, timecop.Freeze)
	tr.sweep(cfg)
	got := tr.Roster()[0]
	if !got.Stale {
		t.Fatal("expected stale after threshold")
	}
	if got.IdleSecs != 11 {
		t.Errorf("idle = %vs, want 11s", got.IdleSecs)
	}
}

func TestReaper_StartStop(t *testing.T) {
	tr := New()
	tr.Reset([]string{"a"})

	fired := make(chan string, 1)
	tr.StartReaper(&ReaperConfig{
		StaleAfter:    time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
		OnStale: func(stream string, _ time.Duration) {
			select {
			case fired <- stream:
			default:
			}
		},
	})
	defer tr.Stop()

	select {
	case s := <-fired:
		if s != "a" {
			t.Fatalf("unexpected stale stream %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reaper never fired")
	}
}

func TestStop_WithoutStart(t *testing.T) {
	tr := New()
	tr.Stop()
}

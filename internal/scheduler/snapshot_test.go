package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/logger"
)

type fakeExporter struct {
	rev atomic.Uint64
}

func (f *fakeExporter) Export() ([]byte, error) { return []byte(`{"version":1,"links":[]}`), nil }
func (f *fakeExporter) Revision() uint64        { return f.rev.Load() }

func TestSnapshotSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	store := &fakeExporter{}
	s := NewSnapshotter(store, dir, logger.Nop(), time.Hour, nil)
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	ctx := context.Background()

	first, err := s.Snapshot(ctx, false)
	if err != nil || first == "" {
		t.Fatalf("Snapshot() = %q, %v", first, err)
	}
	if filepath.Base(first) != "startpage-links-20260102T030406.000Z.json" {
		t.Errorf("snapshot name = %s", filepath.Base(first))
	}

	if again, _ := s.Snapshot(ctx, false); again != "" {
		t.Errorf("unchanged revision should skip, wrote %s", again)
	}
	if forced, _ := s.Snapshot(ctx, true); forced == "" {
		t.Error("forced snapshot should write")
	}

	store.rev.Store(1)
	if changed, _ := s.Snapshot(ctx, false); changed == "" {
		t.Error("changed revision should write")
	}

	if got := remaining(t, dir); len(got) != 3 {
		t.Errorf("snapshots = %v, want 3", got)
	}
	data, _ := os.ReadFile(first)
	if string(data) != `{"version":1,"links":[]}` {
		t.Errorf("snapshot content = %s", data)
	}
}

func TestSnapshotterManualTrigger(t *testing.T) {
	dir := t.TempDir()
	trigger := make(chan struct{})
	s := NewSnapshotter(&fakeExporter{}, dir, logger.Nop(), time.Hour, trigger)
	clock := time.Now()
	var calls atomic.Int64
	s.now = func() time.Time {
		return clock.Add(time.Duration(calls.Add(1)) * time.Second)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	trigger <- struct{}{}

	deadline := time.After(2 * time.Second)
	for len(remaining(t, dir)) < 2 {
		select {
		case <-deadline:
			t.Fatalf("manual trigger did not write a snapshot: %v", remaining(t, dir))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

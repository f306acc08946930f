package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/logger"
)

const (
	// DefaultKeep is how many snapshots survive a collection.
	DefaultKeep = 10

	// DefaultGCThreshold is the age after which snapshots beyond the newest are deleted
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// GarbageCollector prunes old snapshot files.
type GarbageCollector struct {
	dir       string
	keep      int
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewGarbageCollector creates a collector keeping the newest keep snapshots
// in dir. A zero keep or threshold takes the default; a negative threshold
// disables age-based deletion.
func NewGarbageCollector(
	dir string,
	keep int,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if keep <= 0 {
		keep = DefaultKeep
	}
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		dir:       dir,
		keep:      keep,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect deletes every snapshot past the newest keep, and every snapshot
// older than the threshold except the newest one. Files that are not
// snapshots are never touched. Returns the number of files deleted.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	names, err := gc.snapshots()
	if err != nil {
		return 0, err
	}

	now := gc.now()
	deleted := 0
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		taken, ok := parseSnapshotName(name)
		expired := ok && gc.threshold > 0 && now.Sub(taken) > gc.threshold
		if i < gc.keep && (i == 0 || !expired) {
			continue
		}

		if err := os.Remove(filepath.Join(gc.dir, name)); err != nil && !os.IsNotExist(err) {
			gc.logger.Warn("failed to delete snapshot",
				logger.String("file", name),
				logger.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("snapshots_deleted", deleted),
			logger.Int("snapshots_kept", len(names)-deleted))
	} else {
		gc.logger.Debug("no snapshots to garbage collect")
	}

	return deleted, nil
}

// snapshots lists snapshot file names, newest first.
func (gc *GarbageCollector) snapshots() ([]string, error) {
	entries, err := os.ReadDir(gc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backup dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && isSnapshotName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	// the timestamp layout sorts lexically
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

func isSnapshotName(name string) bool {
	_, ok := parseSnapshotName(name)
	return ok
}

func parseSnapshotName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	t, err := time.Parse(snapshotLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

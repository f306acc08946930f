package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/logger"
)

const (
	snapshotPrefix = "startpage-links-"
	snapshotSuffix = ".json"
	snapshotLayout = "20060102T150405.000Z"
)

// Exporter is the part of the link store a snapshot needs.
type Exporter interface {
	Export() ([]byte, error)
	Revision() uint64
}

// Snapshotter periodically writes export files of the collection to a
// directory, skipping ticks where nothing changed.
type Snapshotter struct {
	store         Exporter
	dir           string
	logger        logger.Logger
	interval      time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu           sync.Mutex
	lastRevision uint64
	written      bool
}

// NewSnapshotter creates a snapshotter. manualTrigger may be nil.
func NewSnapshotter(
	store Exporter,
	dir string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Snapshotter {
	return &Snapshotter{
		store:         store,
		dir:           dir,
		logger:        log,
		interval:      interval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start writes a first snapshot and then one per interval or manual trigger.
func (s *Snapshotter) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}
	if _, err := s.Snapshot(ctx, false); err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Snapshot(ctx, false); err != nil {
					s.logger.Error("failed to write snapshot",
						logger.Error(err))
				}
			case <-s.manualTrigger:
				s.logger.Info("manual snapshot triggered")
				if _, err := s.Snapshot(ctx, true); err != nil {
					s.logger.Error("failed to write snapshot",
						logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the snapshotter. It is safe to call more than once.
func (s *Snapshotter) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Snapshot writes the collection to a new timestamped file and returns its
// path. Unless force is set, nothing is written when the store revision has
// not moved since the previous snapshot and "" is returned.
func (s *Snapshotter) Snapshot(ctx context.Context, force bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.store.Revision()
	if s.written && rev == s.lastRevision && !force {
		s.logger.Debug("collection unchanged, skipping snapshot",
			logger.Uint64("revision", rev))
		return "", nil
	}

	data, err := s.store.Export()
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, SnapshotName(s.now()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.lastRevision = rev
	s.written = true
	s.logger.Info("snapshot written",
		logger.String("path", path),
		logger.Uint64("revision", rev),
		logger.Int("bytes", len(data)))
	return path, nil
}

// SnapshotName is the file name used for a snapshot taken at t.
func SnapshotName(t time.Time) string {
	return snapshotPrefix + t.UTC().Format(snapshotLayout) + snapshotSuffix
}

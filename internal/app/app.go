package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/config"
	"github.com/MrSnakeDoc/startpage/internal/httpserver"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/scheduler"
	"github.com/MrSnakeDoc/startpage/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	core        *Core
	server      *httpserver.Server
	snapshotter *scheduler.Snapshotter
	gc          *scheduler.GarbageCollector
}

// New opens the collection and builds the server around it.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	core, err := OpenCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		n, err := core.Seeder(cfg, cfg.SeedFile, loggerClient).Seed(ctx, false)
		switch {
		case errors.Is(err, persist.ErrNotPersisted):
			loggerClient.Warn("seeded collection could not be saved", logger.Error(err))
		case err != nil:
			loggerClient.Warn("homepage seeding failed", logger.Error(err))
		case n > 0:
			loggerClient.Info("collection seeded", logger.Int("links", n))
		}
	}

	// Snapshots are optional
	var (
		snapshotter     *scheduler.Snapshotter
		gc              *scheduler.GarbageCollector
		snapshotTrigger chan struct{}
	)
	if cfg.BackupDir != "" {
		snapshotTrigger = make(chan struct{}, 1)
		snapshotter = scheduler.NewSnapshotter(core.Store, cfg.BackupDir, loggerClient,
			cfg.BackupInterval, snapshotTrigger)
		gc = scheduler.NewGarbageCollector(cfg.BackupDir, cfg.BackupKeep, loggerClient,
			cfg.BackupInterval, cfg.BackupMaxAge)
	} else {
		loggerClient.Info("backup dir not configured, snapshots disabled")
	}

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateBurst:       cfg.RateBurst,
		RatePerMin:      cfg.RatePerMin,
		Store:           core.Store,
		Editor:          core.Editor,
		Thumbnails:      core.Thumbnails,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		Backend:         core.Backend.Name,
		Pinger:          core.Backend.Pinger,
		Gatherer:        core.Registry,
		SnapshotTrigger: snapshotTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		core:        core,
		server:      httpserver.New(cfg, loggerClient, d),
		snapshotter: snapshotter,
		gc:          gc,
	}, nil
}

// Run serves until SIGINT/SIGTERM or ctx is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting startpage %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("startpage %s", version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.core.Close()

	if a.snapshotter != nil {
		if err := a.snapshotter.Start(ctx); err != nil {
			return fmt.Errorf("failed to start snapshotter: %w", err)
		}
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("snapshots enabled",
			logger.String("dir", a.cfg.BackupDir),
			logger.Duration("interval", a.cfg.BackupInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.snapshotter != nil {
		a.snapshotter.Stop()
		a.gc.Stop()
		// last chance for changes made since the previous tick
		if _, err := a.snapshotter.Snapshot(shutdownCtx, false); err != nil {
			a.logger.Warn("final snapshot failed", logger.Error(err))
		}
	}

	if st := a.core.Store.Status(); !st.Persisted {
		a.logger.Warn("stopping with unsaved changes",
			logger.Uint64("revision", st.Revision),
			logger.String("last_error", st.LastError))
	}

	a.logger.Info("✅ startpage stopped cleanly")
	return nil
}

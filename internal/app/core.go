package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrSnakeDoc/startpage/internal/config"
	"github.com/MrSnakeDoc/startpage/internal/editor"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/metrics"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/sources/homepage"
	"github.com/MrSnakeDoc/startpage/internal/thumbnail"
)

// Core is the collection and everything that reads or writes it. Both the
// server and the one-shot CLI commands build one.
type Core struct {
	Backend    *Backend
	Store      *linkstore.Store
	Thumbnails *thumbnail.Loader
	Editor     *editor.Editor
	Registry   *prometheus.Registry
}

// OpenCore opens the backend and loads the collection from it.
func OpenCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*Core, error) {
	backend, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(reg)

	store := linkstore.New(ctx, persist.NewGateway(backend.Slot, log),
		linkstore.WithLogger(log),
		linkstore.WithObserver(collector))
	metrics.NewStoreCollector(reg, store)

	thumbs := thumbnail.NewLoader(
		thumbnail.WithMaxBytes(cfg.MaxUploadBytes),
		thumbnail.WithLogger(log),
		thumbnail.WithObserver(collector))

	return &Core{
		Backend:    backend,
		Store:      store,
		Thumbnails: thumbs,
		Editor:     editor.New(store, thumbs, log),
		Registry:   reg,
	}, nil
}

// Seeder returns the Homepage seeder for file, embedding icons from
// cfg.SeedIconDir when set.
func (c *Core) Seeder(cfg *config.Config, file string, log logger.Logger) *homepage.Seeder {
	s := homepage.NewSeeder(file, c.Store, log)
	if cfg.SeedIconDir != "" {
		s.WithIcons(cfg.SeedIconDir, c.Thumbnails)
	}
	return s
}

func (c *Core) Close() {
	c.Backend.Close()
}

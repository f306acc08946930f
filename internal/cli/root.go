// Package cli is the startpage command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
	"github.com/MrSnakeDoc/startpage/internal/config"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/version"
)

// rootOptions holds the persistent flags and what PersistentPreRunE builds from them.
type rootOptions struct {
	backend  string
	dataFile string
	logLevel string

	cfg *config.Config
	log logger.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "startpage",
		Short: "A personal start page of links",
		Long: `startpage keeps an ordered collection of links with optional thumbnails.

Run "startpage serve" for the HTTP API, or use the other commands to edit the
collection directly. Settings come from STARTPAGE_* environment variables;
the flags below override them.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "persistence backend: memory, file or redis (default $STARTPAGE_BACKEND)")
	root.PersistentFlags().StringVar(&opts.dataFile, "data-file", "", "file backend path (default $STARTPAGE_DATA_FILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default $STARTPAGE_LOG_LEVEL, warn outside serve)")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newRmCmd(opts),
		newMoveCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newResetCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.dataFile != "" {
		cfg.DataFile = o.dataFile
	}
	switch {
	case o.logLevel != "":
		cfg.LogLevel = o.logLevel
	case cmd.Name() != "serve" && os.Getenv("STARTPAGE_LOG_LEVEL") == "":
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.log = logger.New(cfg.LogLevel, cfg.PrettyLog)
	return nil
}

// withCore opens the collection for one command and closes it afterwards.
func (o *rootOptions) withCore(ctx context.Context, fn func(*app.Core) error) error {
	core, err := app.OpenCore(ctx, o.cfg, o.log)
	if err != nil {
		return err
	}
	defer core.Close()

	return fn(core)
}

// saved turns a not-persisted error into a message a one-shot command can show:
// the process exits right after, so an unsaved change is a lost change.
func saved(err error) error {
	if errors.Is(err, persist.ErrNotPersisted) {
		return fmt.Errorf("change was not saved: %w", err)
	}
	return err
}

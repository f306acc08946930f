package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed [bookmarks.yaml]",
		Short: "Fill the collection from a Homepage bookmarks file",
		Long: `Imports the bookmarks of a Homepage (gethomepage.dev) bookmarks.yaml.
Without --force a collection that already has links is left alone.
The file defaults to $STARTPAGE_SEED_FILE.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := opts.cfg.SeedFile
			if len(args) == 1 {
				file = args[0]
			}
			if file == "" {
				return errors.New("no bookmarks file given and STARTPAGE_SEED_FILE is empty")
			}

			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				n, err := core.Seeder(opts.cfg, file, opts.log).Seed(cmd.Context(), force)
				if err != nil {
					return saved(err)
				}
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "collection not empty, nothing seeded (use --force to replace it)")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d links from %s\n", n, file)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace a non-empty collection")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
	"github.com/MrSnakeDoc/startpage/internal/linkstore"
)

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from-id> <to-id>",
		Short: "Move a link to the position of another",
		Long: `Takes the first link out of the collection and puts it back where the
second one was, like dropping a card onto another.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				moved, err := core.Store.Move(cmd.Context(), args[0], args[1])
				if err != nil {
					return saved(err)
				}
				if !moved && args[0] != args[1] {
					return fmt.Errorf("%w: %s or %s", linkstore.ErrNotFound, args[0], args[1])
				}
				return printLinks(cmd, core.Store.List())
			})
		},
	}
}

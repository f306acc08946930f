package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
	"github.com/MrSnakeDoc/startpage/internal/domain"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   "List links in stored order",
		Long: `Lists the collection. With a query, only links whose title or URL contains
it (case-insensitively) are shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				links := core.Store.Search(query)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(links)
				}
				return printLinks(cmd, links)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print links as JSON")
	return cmd
}

func printLinks(cmd *cobra.Command, links []domain.Link) error {
	if len(links) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no links")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tURL\tTHUMB")
	for _, l := range links {
		thumb := domain.Initials(l.Title, l.URL)
		if l.HasThumb() {
			thumb = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, l.DisplayTitle(), l.URL, thumb)
	}
	return w.Flush()
}

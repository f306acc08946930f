package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		title, url, thumbFile string
		clearThumb            bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, URL or thumbnail of a link",
		Long: `Edits one link. Fields without a flag keep their current value.

Example:
startpage edit --title "Go docs" --clear-thumb 3f2a...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearThumb && thumbFile != "" {
				return errors.New("--thumb and --clear-thumb are mutually exclusive")
			}

			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				tok, current, err := core.Editor.OpenEdit(args[0])
				if err != nil {
					return err
				}
				defer core.Editor.Cancel(tok)

				switch {
				case clearThumb:
					err = core.Editor.ClearThumbnail(tok)
				case thumbFile != "":
					err = stageFile(cmd.Context(), core.Editor, tok, thumbFile)
				}
				if err != nil {
					return err
				}

				if !cmd.Flags().Changed("title") {
					title = current.Title
				}
				if !cmd.Flags().Changed("url") {
					url = current.URL
				}

				link, err := core.Editor.Commit(cmd.Context(), tok, title, url)
				if err != nil {
					return saved(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s %s\n", link.ID, link.DisplayTitle(), link.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title (empty falls back to the host)")
	cmd.Flags().StringVar(&url, "url", "", "new URL")
	cmd.Flags().StringVar(&thumbFile, "thumb", "", "image file to use as thumbnail")
	cmd.Flags().BoolVar(&clearThumb, "clear-thumb", false, "remove the thumbnail")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
	"github.com/MrSnakeDoc/startpage/internal/editor"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var title, thumbFile string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a link at the front of the collection",
		Long: `Adds a link. The URL gets https:// when it has no http(s) scheme, and the
title falls back to the URL's host.

Example:
startpage add --title Docs --thumb ./docs.png docs.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				tok := core.Editor.OpenAdd()
				defer core.Editor.Cancel(tok)

				if thumbFile != "" {
					if err := stageFile(cmd.Context(), core.Editor, tok, thumbFile); err != nil {
						return err
					}
				}

				link, err := core.Editor.Commit(cmd.Context(), tok, title, args[0])
				if err != nil {
					return saved(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), link.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "link title (default: the URL's host)")
	cmd.Flags().StringVar(&thumbFile, "thumb", "", "image file to use as thumbnail")
	return cmd
}

// stageFile reads path into the session's staged thumbnail.
func stageFile(ctx context.Context, ed *editor.Editor, tok editor.Token, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer f.Close()

	declared := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if err := <-ed.StageThumbnail(ctx, tok, f, declared); err != nil {
		return err
	}
	return nil
}

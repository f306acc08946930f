package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/startpage/internal/app"
)

// defaultExportFile matches the name the HTTP export offers for download.
const defaultExportFile = "startpage-links.json"

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection to an export file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				data, err := core.Store.Export()
				if err != nil {
					return err
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d links to %s\n", core.Store.Len(), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultExportFile, `output file, "-" for stdout`)
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collection with an export file",
		Long: `Replaces the whole collection with the links of an export file ("-" reads
stdin). A file that is not valid JSON or has no "links" array changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				n, err := core.Store.Import(cmd.Context(), raw)
				if err != nil {
					return saved(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d links\n", n)
				return nil
			})
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes every link, run again with --yes to confirm")
			}
			return opts.withCore(cmd.Context(), func(core *app.Core) error {
				if err := core.Store.Reset(cmd.Context()); err != nil {
					return saved(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "collection reset")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

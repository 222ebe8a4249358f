package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the family to a file",
		Long:  "Exports people, relationships, evidence and households in a format 'kin import' reads back.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "json", "Output format (json, csv)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !contains(validFileFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFileFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) (err error) {
		var w io.Writer = cmd.OutOrStdout()
		if flags.output != "" {
			f, ferr := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if ferr != nil {
				return fmt.Errorf("creating file: %w", ferr)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing file: %w", cerr)
				}
			}()
			w = f
		}

		n, err := d.ImportHandler.HandleExport(ctx, w, flags.format)
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}

		if flags.output != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, flags.output)
		}
		return nil
	})
}

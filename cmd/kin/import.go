package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/services"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import people, relationships and evidence from JSON or CSV",
		Long: `Imports a family document. Every relationship goes through the same
validation as 'kin propose'; records that fail are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", string(services.ConflictSkip), "Existing people: skip, overwrite")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	strategy := services.ConflictStrategy(flags.onConflict)
	if !strategy.IsValid() {
		return fmt.Errorf("invalid --on-conflict value %q (valid: skip, overwrite)", flags.onConflict)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		fmt.Fprintf(out, "Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, filePath, handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: strategy,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		printImportResult(out, result, flags.dryRun)
		return nil
	})
}

func printImportResult(w io.Writer, result *services.ImportResult, dryRun bool) {
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}

	fmt.Fprintln(w)
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d records would be imported", result.Imported())
	} else {
		fmt.Fprintf(w, "Imported: %d records", result.Imported())
	}
	fmt.Fprintf(w, " (%d people, %d partnerships, %d parent-child, %d evidence)",
		result.People, result.Partnerships, result.ParentChild, result.Evidence)

	if result.Skipped > 0 {
		fmt.Fprintf(w, ", %d skipped (already exist)", result.Skipped)
	}
	if result.Warnings > 0 {
		fmt.Fprintf(w, ", %d with warnings", result.Warnings)
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, ", %d errors", len(result.Errors))
	}

	fmt.Fprintln(w)
}

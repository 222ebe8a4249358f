package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new kin workspace",
		Long:  "Creates a .kin directory with default configuration and an empty family database.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	return withFamilyHandler(func(families *handlers.FamilyHandler) error {
		result, err := handlers.NewInitHandler(families).Handle(cmd.Context(), globalFamily)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
		fmt.Fprintf(out, "Created family %q at %s\n", result.Family.Name, result.Family.DatabasePath)
		fmt.Fprintln(out, "Kin initialized successfully!")
		return nil
	})
}

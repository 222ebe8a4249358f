package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

func newFamiliesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "Manage family databases",
		RunE:  runFamiliesList,
	}

	cmd.AddCommand(
		newFamiliesListCmd(),
		newFamiliesCreateCmd(),
		newFamiliesDeleteCmd(),
	)

	return cmd
}

func newFamiliesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all families",
		RunE:  runFamiliesList,
	}
}

func runFamiliesList(cmd *cobra.Command, args []string) error {
	return withFamilyHandler(func(h *handlers.FamilyHandler) error {
		families, err := h.HandleList()
		if err != nil {
			return err
		}
		printFamilies(cmd.OutOrStdout(), families)
		return nil
	})
}

func printFamilies(w io.Writer, families []handlers.FamilyInfo) {
	if len(families) == 0 {
		fmt.Fprintln(w, "No families configured.")
		fmt.Fprintln(w, "Use 'kin families create NAME' to create a family.")
		return
	}

	fmt.Fprintf(w, "%-20s %-40s %s\n", "NAME", "DATABASE", "DESCRIPTION")
	fmt.Fprintf(w, "%-20s %-40s %s\n", "----", "--------", "-----------")
	for _, f := range families {
		fmt.Fprintf(w, "%-20s %-40s %s\n", f.Name, f.DatabasePath, f.Description)
	}
}

func newFamiliesCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new family database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFamilyHandler(func(h *handlers.FamilyHandler) error {
				info, err := h.HandleCreate(cmd.Context(), args[0], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created family %q at %s\n", info.Name, info.DatabasePath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Family description")

	return cmd
}

func newFamiliesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a family and its database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFamilyHandler(func(h *handlers.FamilyHandler) error {
				if err := h.HandleDelete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted family %q\n", args[0])
				return nil
			})
		},
	}
}

// Package main provides the entry point for the kin CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
)

var (
	version      = "0.1.0-dev"
	globalFamily string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kin",
		Short:         "A family relationship graph with tree views and parent-child suggestions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalFamily, "family", "F", handlers.DefaultFamily, "Family database to operate on")

	rootCmd.AddCommand(
		newInitCmd(),
		newFamiliesCmd(),
		newPeopleCmd(),
		newTreeCmd(),
		newProposeCmd(),
		newRemoveCmd(),
		newSuggestCmd(),
		newRespondCmd(),
		newRejectionsCmd(),
		newAuditCmd(),
		newImportCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	return rootCmd
}

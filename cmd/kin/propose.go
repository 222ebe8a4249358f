package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
	"github.com/ersonp/kin-core/internal/infrastructure/parsers"
)

func newProposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose a new relationship edge",
		Long: `Proposes a partnership or parent-child edge. The edge is validated against
the whole graph and committed only if no rule is violated.`,
	}

	cmd.AddCommand(
		newProposePartnershipCmd(),
		newProposeParentChildCmd(),
	)

	return cmd
}

func newProposePartnershipCmd() *cobra.Command {
	var raw parsers.RawPartnership

	cmd := &cobra.Command{
		Use:   "partnership <person-a> <person-b>",
		Short: "Propose a partnership between two people",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw.PersonA, raw.PersonB = args[0], args[1]
			return runPropose(cmd, handlers.ProposeRequest{
				Kind:        string(entities.EdgeKindPartnership),
				Partnership: &raw,
			})
		},
	}

	cmd.Flags().StringVar(&raw.Kind, "kind", "", "Partnership kind: married, partnered, engaged, other")
	cmd.Flags().StringVar(&raw.Status, "status", "", "Status: current, ended, divorced, widowed, separated")
	cmd.Flags().StringVar(&raw.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.EndDate, "end", "", "End date (YYYY-MM-DD)")

	return cmd
}

func newProposeParentChildCmd() *cobra.Command {
	var (
		raw        parsers.RawParentChild
		confidence int
	)

	cmd := &cobra.Command{
		Use:   "parent-child <parent> <child>",
		Short: "Propose a parent-child link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw.Parent, raw.Child = args[0], args[1]
			if cmd.Flags().Changed("confidence") {
				raw.Confidence = &confidence
			}
			return runPropose(cmd, handlers.ProposeRequest{
				Kind:        string(entities.EdgeKindParentChild),
				ParentChild: &raw,
			})
		},
	}

	cmd.Flags().StringVar(&raw.RelationshipType, "type", "", "Relationship: biological, adopted, step, foster, other")
	cmd.Flags().BoolVar(&raw.Verified, "verified", false, "Mark the link as verified")
	cmd.Flags().IntVar(&confidence, "confidence", 100, "Confidence 0-100")

	return cmd
}

func runPropose(cmd *cobra.Command, req handlers.ProposeRequest) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		res, err := d.EdgeHandler.HandlePropose(ctx, req)
		if err != nil {
			return err
		}
		printValidation(cmd.OutOrStdout(), res)
		if !res.OK() {
			return fmt.Errorf("edge rejected: %w", res.Err())
		}
		return nil
	})
}

func printValidation(w io.Writer, res graph.ValidationResult) {
	if res.OK() {
		fmt.Fprintf(w, "Committed edge %s\n", res.EdgeID)
	} else {
		fmt.Fprintln(w, "Rejected:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  error: %s\n", e.Error())
		}
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning [%s]: %s\n", warn.Code, warn.Message)
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <edge-id>",
		Short: "Remove a relationship edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				if err := d.EdgeHandler.HandleRemove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed edge %s\n", args[0])
				return nil
			})
		},
	}
}

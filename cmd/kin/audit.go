package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
)

type auditFlags struct {
	edge   string
	action string
	limit  int
	format string
}

func newAuditCmd() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log of graph changes and suggestion reviews",
		Long: `Shows audit entries, newest first, for one edge (--edge) or for one
action (--action). Both may be combined.

Actions: ` + strings.Join(entities.AuditActions, ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.edge, "edge", "", "Edge id")
	cmd.Flags().StringVar(&flags.action, "action", "", "Audit action")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultAuditLimit, "Maximum number of entries")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json")

	return cmd
}

func runAudit(cmd *cobra.Command, flags auditFlags) error {
	if !contains(validOutputFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validOutputFormats)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		entries, err := d.AuditHandler.HandleList(ctx, handlers.AuditQuery{
			EdgeID: flags.edge,
			Action: flags.action,
			Limit:  flags.limit,
		})
		if err != nil {
			return err
		}
		if flags.format == formatJSON {
			return writeJSON(out, entries)
		}
		printAudit(out, entries)
		return nil
	})
}

func printAudit(w io.Writer, entries []entities.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")
		return
	}

	for _, e := range entries {
		edge := e.EdgeID
		if edge == "" {
			edge = "-"
		}
		fmt.Fprintf(w, "%s  %-20s %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, edge, formatDetails(e.Details))
	}
}

// formatDetails renders details as sorted key=value pairs.
func formatDetails(details map[string]any) string {
	parts := make([]string, 0, len(details))
	for _, k := range slices.Sorted(maps.Keys(details)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

type treeFlags struct {
	view   string
	depth  int
	format string
}

func newTreeCmd() *cobra.Command {
	var flags treeFlags

	cmd := &cobra.Command{
		Use:   "tree <person-id>",
		Short: "Show a family tree around a person",
		Long: `Projects the family graph around a focus person.

Views:
  descendant  the person, partners and everyone below them
  pedigree    the person and their ancestors
  fan         ancestors with fan-chart sector indices

Examples:
  kin tree 0b6c2f7e-...
  kin tree 0b6c2f7e-... --view pedigree --depth 6
  kin tree 0b6c2f7e-... --view fan --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.view, "view", string(entities.ViewDescendant), "Tree view: descendant, pedigree, fan")
	cmd.Flags().IntVarP(&flags.depth, "depth", "d", services.DefaultTreeDepth, "Generations to expand")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json")

	return cmd
}

func runTree(cmd *cobra.Command, personID string, flags treeFlags) error {
	if !contains(validOutputFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validOutputFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		opts := handlers.TreeOptions{View: flags.view, Depth: &flags.depth}

		root, err := d.TreeHandler.Handle(ctx, personID, opts)
		if err != nil {
			return fmt.Errorf("projecting tree: %w", err)
		}

		if flags.format == formatJSON {
			return writeJSON(cmd.OutOrStdout(), root)
		}
		printTree(cmd.OutOrStdout(), root)
		return nil
	})
}

// printTree renders a projection as an indented outline. Parents are
// listed before partners and children at each level.
func printTree(w io.Writer, root *entities.TreeNode) {
	printTreeNode(w, root, "", "")
	if root.Truncated {
		fmt.Fprintln(w, "\n(more relatives beyond the depth limit; raise --depth to see them)")
	}
}

func printTreeNode(w io.Writer, n *entities.TreeNode, indent, label string) {
	fmt.Fprintf(w, "%s%s%s\n", indent, label, describeNode(n))
	if n.Collapsed {
		return
	}

	type branch struct {
		label string
		nodes []entities.TreeNode
	}
	branches := []branch{
		{"parent: ", n.Parents},
		{"partner: ", n.Partners},
		{"child: ", n.Children},
	}
	for _, b := range branches {
		for i := range b.nodes {
			printTreeNode(w, &b.nodes[i], indent+"  ", b.label)
		}
	}
}

func describeNode(n *entities.TreeNode) string {
	var b strings.Builder
	b.WriteString(n.Name)

	born, died := formatDate(n.BirthDate), formatDate(n.DeathDate)
	switch {
	case born != "" && died != "":
		fmt.Fprintf(&b, " (%s - %s)", born, died)
	case born != "":
		fmt.Fprintf(&b, " (b. %s)", born)
	case died != "":
		fmt.Fprintf(&b, " (d. %s)", died)
	}

	fmt.Fprintf(&b, " [gen %+d", n.Generation)
	if n.RelationshipType != "" && n.RelationshipType != entities.RelationBiological {
		fmt.Fprintf(&b, ", %s", n.RelationshipType)
	}
	if n.SectorIndex != nil {
		fmt.Fprintf(&b, ", sector %d", *n.SectorIndex)
	}
	b.WriteString("]")

	if n.Collapsed {
		b.WriteString(" (see above)")
	}
	return b.String()
}

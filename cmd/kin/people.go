package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

type peopleFlags struct {
	search string
	limit  int
	format string
}

func newPeopleCmd() *cobra.Command {
	var flags peopleFlags

	cmd := &cobra.Command{
		Use:   "people [person-id]",
		Short: "List, search or show people",
		Long: `Lists people in the family database, or shows one person by id.

Examples:
  kin people
  kin people --search walsh
  kin people 0b6c2f7e-... --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeople(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.search, "search", "s", "", "Match display names containing this text")
	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultPeopleLimit, "Maximum number of people to list")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json")

	return cmd
}

func runPeople(cmd *cobra.Command, args []string, flags peopleFlags) error {
	if !contains(validOutputFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validOutputFormats)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		if len(args) == 1 {
			p, err := d.PersonHandler.HandleGet(ctx, args[0])
			if err != nil {
				return err
			}
			if flags.format == formatJSON {
				return writeJSON(out, p)
			}
			printPeople(out, []entities.Person{*p}, 0)
			return nil
		}

		people, err := d.PersonHandler.HandleList(ctx, flags.search, flags.limit)
		if err != nil {
			return fmt.Errorf("listing people: %w", err)
		}
		if flags.format == formatJSON {
			return writeJSON(out, people)
		}
		total, err := d.PersonHandler.HandleCount(ctx)
		if err != nil {
			return fmt.Errorf("counting people: %w", err)
		}
		printPeople(out, people, total)
		return nil
	})
}

// printPeople renders a table. When total exceeds the rows shown, the
// footer says how many were left out.
func printPeople(w io.Writer, people []entities.Person, total int) {
	if len(people) == 0 {
		fmt.Fprintln(w, "No people found.")
		return
	}

	fmt.Fprintf(w, "%-38s %-30s %-10s %s\n", "ID", "NAME", "BORN", "DIED")
	for _, p := range people {
		died := formatDate(p.DeathDate)
		if died == "" && p.IsDeceased {
			died = "deceased"
		}
		fmt.Fprintf(w, "%-38s %-30s %-10s %s\n", p.ID, truncate(p.DisplayName, 30), formatDate(p.BirthDate), died)
	}
	if total > len(people) {
		fmt.Fprintf(w, "\n%d of %d people\n", len(people), total)
		return
	}
	fmt.Fprintf(w, "\n%d people\n", len(people))
}

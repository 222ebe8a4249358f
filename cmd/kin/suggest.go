package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
)

type suggestFlags struct {
	limit         int
	minConfidence float64
	format        string
}

func newSuggestCmd() *cobra.Command {
	var flags suggestFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank likely parent-child links that are not yet recorded",
		Long: `Scores every unlinked pair with a plausible age gap on surname similarity,
age gap, shared households and supporting evidence, and lists the best
candidates first. Accept or reject them with 'kin respond'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.limit, "limit", "l", DefaultSuggestionLimit, "Maximum number of suggestions")
	cmd.Flags().Float64Var(&flags.minConfidence, "min-confidence", 0, "Hide suggestions below this confidence (0-100)")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json")

	return cmd
}

func runSuggest(cmd *cobra.Command, flags suggestFlags) error {
	if !contains(validOutputFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validOutputFormats)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		suggestions, err := d.SuggestionHandler.HandleList(ctx, handlers.ListOptions{
			Limit:         flags.limit,
			MinConfidence: flags.minConfidence,
		})
		if err != nil {
			return fmt.Errorf("scoring suggestions: %w", err)
		}
		if flags.format == formatJSON {
			return writeJSON(out, suggestions)
		}
		printSuggestions(out, suggestions, personNamer(ctx, d.PersonHandler))
		return nil
	})
}

// personNamer resolves ids to display names, falling back to the id.
func personNamer(ctx context.Context, h *handlers.PersonHandler) func(string) string {
	cache := make(map[string]string)
	return func(id string) string {
		if name, ok := cache[id]; ok {
			return name
		}
		name := id
		if p, err := h.HandleGet(ctx, id); err == nil {
			name = p.DisplayName
		}
		cache[id] = name
		return name
	}
}

func printSuggestions(w io.Writer, suggestions []entities.SuggestionCandidate, name func(string) string) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}

	for i, s := range suggestions {
		flag := ""
		if s.Ambiguous {
			flag = " (ambiguous)"
		}
		fmt.Fprintf(w, "%2d. %5.1f%%  %s -> %s%s\n", i+1, s.Confidence, name(s.CandidateParent), name(s.CandidateChild), flag)
		fmt.Fprintf(w, "    %s\n", s.Reasoning)
		fmt.Fprintf(w, "    kin respond %s %s --accept\n", s.CandidateParent, s.CandidateChild)
	}
}

func newRespondCmd() *cobra.Command {
	var accept, reject bool

	cmd := &cobra.Command{
		Use:   "respond <parent> <child>",
		Short: "Accept or reject a parent-child suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if accept == reject {
				return errors.New("exactly one of --accept or --reject is required")
			}
			return runRespond(cmd, args[0], args[1], accept)
		},
	}

	cmd.Flags().BoolVar(&accept, "accept", false, "Record the link")
	cmd.Flags().BoolVar(&reject, "reject", false, "Stop suggesting this pair")

	return cmd
}

func runRespond(cmd *cobra.Command, parent, child string, accept bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		result, err := d.SuggestionHandler.HandleRespond(ctx, parent, child, accept)
		if err != nil {
			return err
		}
		if result.Validation != nil {
			printValidation(out, *result.Validation)
		}
		if !result.Committed() {
			return fmt.Errorf("suggestion not applied: %w", result.Validation.Err())
		}
		fmt.Fprintf(out, "Suggestion %s\n", result.Decision)
		return nil
	})
}

func newRejectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rejections",
		Short: "Manage rejected suggestions",
	}

	var parent, child string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Make rejected pairs eligible for suggestion again",
		Long:  "Clears the rejection of one pair (--parent and --child) or of every pair.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *Deps) error {
				n, err := d.SuggestionHandler.HandleClearRejections(ctx, parent, child)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d rejection(s)\n", n)
				return nil
			})
		},
	}
	clearCmd.Flags().StringVar(&parent, "parent", "", "Parent id of the pair")
	clearCmd.Flags().StringVar(&child, "child", "", "Child id of the pair")

	cmd.AddCommand(clearCmd)
	return cmd
}

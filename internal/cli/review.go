package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nobelmap/internal/model"
	"github.com/ppiankov/nobelmap/internal/override"
	"github.com/ppiankov/nobelmap/internal/store"
)

var (
	reviewForce         bool
	promoteMinConfident string
)

// reviewCmd groups the manual review feedback commands
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Feed manual review results back into the overrides file",
}

var reviewImportCmd = &cobra.Command{
	Use:   "import <needs_manual_review.csv>",
	Short: "Import a filled review CSV into the overrides file",
	Long: `Import reads the manual review CSV written by the validate stage after a
reviewer filled in the work_location_manual column. Rows with a manual
location become overrides; notes are carried along. Existing overrides
are kept unless --force is given.

Run "nobelmap run --from 5" afterwards to apply them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := override.FromReviewCSV(args[0])
		if err != nil {
			return fmt.Errorf("read review CSV: %w", err)
		}
		return mergeOverrides(cmd, entries)
	},
}

var reviewPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote assisted-search proposals into the overrides file",
	Long: `Promote copies proposals written by "nobelmap assist" into the overrides
file. Only proposals with a location and at least the given confidence
are promoted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proposals, err := newStore(cfg).ReadProposals()
		if err != nil {
			return fmt.Errorf("read proposals: %w", err)
		}
		minRank, ok := confidenceRank[promoteMinConfident]
		if !ok {
			return fmt.Errorf("unknown confidence %q (use high, medium or low)", promoteMinConfident)
		}
		return mergeOverrides(cmd, promotable(proposals, minRank))
	},
}

var confidenceRank = map[string]int{"low": 0, "medium": 1, "high": 2}

func promotable(proposals map[string]model.Proposal, minRank int) map[string]model.Override {
	out := make(map[string]model.Override)
	for id, p := range proposals {
		if p.WorkLocation == "" || confidenceRank[p.Confidence] < minRank {
			continue
		}
		out[id] = model.Override{
			WorkLocation: p.WorkLocation,
			Note:         fmt.Sprintf("assisted search (%s): %s", p.Confidence, p.Source),
		}
	}
	return out
}

func mergeOverrides(cmd *cobra.Command, entries map[string]model.Override) error {
	f, err := override.Load(cfg.OverridesFile)
	if err != nil {
		return err
	}
	r := f.Merge(entries, reviewForce)
	if err := f.Save(cfg.OverridesFile); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s: %d added, %d replaced, %d kept\n", cfg.OverridesFile, r.Added, r.Replaced, r.Kept)
	if r.Kept > 0 && !reviewForce {
		fmt.Fprintln(out, "  Existing overrides were kept; use --force to replace them")
	}
	fmt.Fprintf(out, "  Apply with: nobelmap run --from 5 (reads %s)\n", store.SnapshotFixed)
	return nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewImportCmd)
	reviewCmd.AddCommand(reviewPromoteCmd)

	reviewCmd.PersistentFlags().BoolVar(&reviewForce, "force", false, "replace existing overrides")
	reviewPromoteCmd.Flags().StringVar(&promoteMinConfident, "min-confidence", "high", "lowest confidence to promote (high, medium, low)")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/pipeline"
	"github.com/ppiankov/nobelmap/internal/store"
)

var assistLimit int

// assistCmd represents the assist command
var assistCmd = &cobra.Command{
	Use:   "assist",
	Short: "Ask an LLM about laureates left for manual review",
	Long: `Assist asks the configured LLM provider where each laureate in
needs_manual_review.json did their prize-winning work. Answers are saved
as proposals with a confidence level; they never change the dataset.
Review them and run "nobelmap review promote".

Requires llm.provider and an API key (llm.api_key, OPENAI_API_KEY or
ANTHROPIC_API_KEY).

Example:
  nobelmap assist --limit 20`,
	Args: cobra.NoArgs,
	RunE: runAssist,
}

func init() {
	rootCmd.AddCommand(assistCmd)
	assistCmd.Flags().IntVar(&assistLimit, "limit", 0, "maximum laureates to ask about (0 = all)")
}

func runAssist(cmd *cobra.Command, args []string) error {
	provider, err := pipeline.NewAssistProvider(cfg.LLM)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	st := newStore(cfg)
	summary, err := pipeline.Assist(ctx, st, provider, cfg.Batch(), assistLimit, observability.Logger("assist"), processMetrics())
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", summary.String())
	if verbose && len(summary.Failures) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), summary.FailureList())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Proposals saved to %s\n", st.Path(store.ProposalsJSON))
	return nil
}

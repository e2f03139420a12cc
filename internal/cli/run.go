package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nobelmap/internal/observability"
	"github.com/ppiankov/nobelmap/internal/pipeline"
)

var (
	fromStage int
	toStage   int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline stages",
	Long: `Run executes the pipeline stages in order, writing a snapshot after each:

  1 fetch            Nobel Prize API -> 01_raw_from_api.json
  2 nobelprize_org   facts page enrichment -> 02_enriched_nobelprize_org.json
  3 wikipedia        infobox enrichment -> 03_enriched_wikipedia.json
  4 fix_geocoding    coordinate repairs -> 04_fixed_geocoding.json
  5 overrides        manual overrides -> 05_with_overrides.json
  6 validate         review artifacts -> 06_final.json

A failed stage stops the run. Resume with --from, which starts from the
snapshot of the stage before it.

Example:
  nobelmap run
  nobelmap run --from 4
  nobelmap run --from 2 --to 3`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

// stageCmd represents the stage command
var stageCmd = &cobra.Command{
	Use:   "stage <name|number>",
	Short: "Run one stage against the previous stage's snapshot",
	Example: `  nobelmap stage fix_geocoding
  nobelmap stage 5`,
	Args: cobra.ExactArgs(1),
	RunE: runOneStage,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stageCmd)

	runCmd.Flags().IntVar(&fromStage, "from", 1, "first stage to run")
	runCmd.Flags().IntVar(&toStage, "to", 0, "last stage to run (default: last)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m := processMetrics()
	resolver := newResolver(cfg, m)
	defer flushResolver(resolver)

	results, err := newRunner(cfg, resolver, m).Run(ctx, fromStage, toStage)
	printResults(cmd.OutOrStdout(), results)
	return err
}

func runOneStage(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m := processMetrics()
	resolver := newResolver(cfg, m)
	defer flushResolver(resolver)

	result, err := newRunner(cfg, resolver, m).RunStage(ctx, args[0])
	printResults(cmd.OutOrStdout(), []pipeline.Result{result})
	return err
}

func flushResolver(f interface{ Flush() error }) {
	if err := f.Flush(); err != nil {
		observability.Logger("geo").WithError(err).Warn("could not persist geocode cache")
	}
}

func printResults(w io.Writer, results []pipeline.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Pipeline Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	for _, r := range results {
		fmt.Fprintf(w, "\n  %s (%s)\n", r.Stage, r.Duration.Round(time.Millisecond))
		for _, s := range r.Summaries {
			fmt.Fprintf(w, "    %s\n", s.String())
			if verbose && len(s.Failures) > 0 {
				fmt.Fprintln(w, indent(s.FailureList(), "    "))
			}
		}
	}
	fmt.Fprintln(w)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

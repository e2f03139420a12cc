package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nobelmap/internal/store"
)

var (
	compareJSON bool
	compareTop  int
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <backup.json> <new.json>",
	Short: "Compare two dataset snapshots",
	Long: `Compare reports laureates present in only one snapshot, work location
text changes, and coordinate moves larger than 0.01 degrees where the
text stayed the same.

Example:
  nobelmap compare backup/nobel_laureates.json nobel_laureates.json
  nobelmap compare old.json new.json --json > diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the full diff as JSON")
	compareCmd.Flags().IntVar(&compareTop, "top", 10, "number of largest coordinate moves to list")
}

func runCompare(cmd *cobra.Command, args []string) error {
	backup, err := store.ReadDataset(args[0])
	if err != nil {
		return fmt.Errorf("load backup: %w", err)
	}
	current, err := store.ReadDataset(args[1])
	if err != nil {
		return fmt.Errorf("load new: %w", err)
	}

	diff := store.Compare(backup, current)
	out := cmd.OutOrStdout()
	if compareJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(diff)
	}
	printDiff(out, args[0], args[1], diff, compareTop)
	return nil
}

func printDiff(w io.Writer, backupPath, newPath string, d store.Diff, top int) {
	fmt.Fprintf(w, "Backup: %s\n", backupPath)
	fmt.Fprintf(w, "New:    %s\n\n", newPath)

	if d.Empty() {
		fmt.Fprintln(w, "✓ No differences")
		return
	}

	fmt.Fprintf(w, "  Only in backup:     %d\n", len(d.OnlyInBackup))
	fmt.Fprintf(w, "  Only in new:        %d\n", len(d.OnlyInNew))
	fmt.Fprintf(w, "  Location changes:   %d\n", len(d.LocationChanges))
	fmt.Fprintf(w, "  Coordinate changes: %d\n", len(d.CoordChanges))

	for _, e := range d.OnlyInBackup {
		fmt.Fprintf(w, "  - %s (%s)\n", e.Name, e.ID)
	}
	for _, e := range d.OnlyInNew {
		fmt.Fprintf(w, "  + %s (%s)\n", e.Name, e.ID)
	}

	if len(d.LocationChanges) > 0 {
		fmt.Fprintln(w, "\nLocation changes:")
		for _, c := range d.LocationChanges {
			fmt.Fprintf(w, "  %s (%s)\n    %s\n    -> %s\n", c.Name, c.ID, c.BackupLocation, c.NewLocation)
		}
	}

	if moves := d.LargestMoves(top); len(moves) > 0 {
		fmt.Fprintln(w, "\nLargest coordinate moves:")
		for _, c := range moves {
			fmt.Fprintf(w, "  %s (%s), %s\n    %.4f,%.4f -> %.4f,%.4f  %.1f km  [%s]\n",
				c.Name, c.ID, c.WorkLocation,
				c.BackupCoords.Lat, c.BackupCoords.Lon, c.NewCoords.Lat, c.NewCoords.Lon,
				c.DistanceKM, c.Geohash)
		}
	}
}

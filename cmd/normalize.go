package cmd

import (
	"github.com/huangsam/foothold/core"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/spf13/cobra"
)

// normalizeCmd prints the normalized matrix.
var normalizeCmd = &cobra.Command{
	Use:   "normalize <source>",
	Short: "Print every criterion rescaled onto 0..10.",
	Long: `Rescale each criterion independently onto 0..10 using the min and max of its
present values, rounded to two decimals. Missing cells stay empty.

Min and max always span every city in the source; --cities only narrows the
rows that are printed. CSV output repeats the sphere row so it can be fed back in.

Examples:
  # Print one table per sphere
  foothold normalize cities.xlsx

  # Save the matrix as CSV
  foothold normalize cities.xlsx --output csv --output-file normalized.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteNormalize(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot normalize source", err)
		}
	},
}

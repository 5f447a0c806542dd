package cmd

import (
	"github.com/huangsam/foothold/core"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/spf13/cobra"
)

// rankCmd ranks a selection of cities into reference tiers.
var rankCmd = &cobra.Command{
	Use:   "rank <source>",
	Short: "Rank cities into four reference tiers.",
	Long: `Normalize every criterion of the source onto 0..10, draw each selected city
as a radar polygon and rank the selection into 1st- to 4th-order references.

Variant 1 (area consensus) ranks by polygon area and splits the middle group by
how many criteria sit at or above the group mean. Variant 2 (factor blend) crowns
the city with the highest value sum and orders the rest by deficit and area.

The source is an .xlsx, .csv or .tsv table: a header row of criterion names, a
row of sphere labels (Political, Economic, Social, Spiritual) and one row per city.

Examples:
  # Rank every city with the default variant
  foothold rank cities.xlsx

  # Rank five cities with variant 2 and show why
  foothold rank cities.xlsx --cities Kazan,Perm,Omsk,Tula,Samara --variant 2 --explain

  # Show which values were reconstructed by gap filling
  foothold rank cities.csv --detail --audit

  # Record the run and export it as JSON
  foothold rank cities.xlsx --run-backend sqlite --output json --output-file ranking.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRank(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot rank cities", err)
		}
	},
}

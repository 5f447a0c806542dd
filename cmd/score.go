package cmd

import (
	"github.com/huangsam/foothold/core"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/spf13/cobra"
)

// scoreCmd prints radar polygon areas without ranking.
var scoreCmd = &cobra.Command{
	Use:   "score <source>",
	Short: "Print the radar polygon area of each city.",
	Long: `Gap-fill each selected city's normalized vector from its nearest known
neighbours and print the area of its radar polygon.

Scoring has no minimum selection, so it also works for one or two cities.

Examples:
  # Score every city
  foothold score cities.xlsx

  # Score two cities with their filled vectors
  foothold score cities.xlsx --cities Kazan,Perm --detail`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot score cities", err)
		}
	},
}

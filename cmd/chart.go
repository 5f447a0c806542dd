package cmd

import (
	"github.com/huangsam/foothold/core"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/spf13/cobra"
)

// chartCmd writes radar chart geometry.
var chartCmd = &cobra.Command{
	Use:   "chart <source>",
	Short: "Write radar chart geometry as GeoJSON.",
	Long: `Write one polygon per selected city plus one line per criterion axis as a
GeoJSON FeatureCollection, ready for any GeoJSON viewer or plotting tool.

With --layout equal the axes use the same angles as scoring. With --layout sphere
the axes of each sphere share one quadrant and a label point marks each sphere.
Selections of three or more cities carry their tier in the feature properties.

Examples:
  # Chart every city
  foothold chart cities.xlsx --output-file radar.geojson

  # Group the axes by sphere
  foothold chart cities.xlsx --layout sphere --output-file radar.geojson`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChart(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot chart cities", err)
		}
	},
}

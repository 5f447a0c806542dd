package schema

import (
	"encoding/json"
	"fmt"
)

// Custom string types for type safety.
type (
	// BreakdownKey represents keys used in ranking breakdowns.
	BreakdownKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// RankVariant represents the ranking algorithm used.
	RankVariant string

	// ChartLayout represents how radar axes are placed around the circle.
	ChartLayout string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// Breakdown keys used by the ranking variants.
const (
	BreakdownArea      BreakdownKey = "area"            // polygon area
	BreakdownSum       BreakdownKey = "sum"             // sum of filled values
	BreakdownAboveAvg  BreakdownKey = "above_avg_share" // share of criteria at or above the middle-group mean
	BreakdownDeficit   BreakdownKey = "deficit"         // sum of (10 - v)
	BreakdownDeficitRk BreakdownKey = "deficit_rank"
	BreakdownAreaRk    BreakdownKey = "area_rank"
	BreakdownBlend     BreakdownKey = "blend"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	XLSXOut    OutputMode = "xlsx"
)

// All ranking variants supported.
const (
	VariantAreaConsensus RankVariant = "1" // default
	VariantFactorBlend   RankVariant = "2"
)

// All chart layouts supported.
const (
	EqualLayout  ChartLayout = "equal" // default, same angles as scoring
	SphereLayout ChartLayout = "sphere"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	XLSXOut:    {},
}

// ValidRankVariants lists all valid ranking variants.
var ValidRankVariants = map[RankVariant]struct{}{
	VariantAreaConsensus: {},
	VariantFactorBlend:   {},
}

// ValidChartLayouts lists all valid chart layouts.
var ValidChartLayouts = map[ChartLayout]struct{}{
	EqualLayout:  {},
	SphereLayout: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Tier is the ordinal reference status of a ranked entity.
type Tier int

// All tiers, best first.
const (
	FirstOrder Tier = iota + 1
	SecondOrder
	ThirdOrder
	FourthOrder
)

var tierLabels = map[Tier]string{
	FirstOrder:  "1st-order reference",
	SecondOrder: "2nd-order reference",
	ThirdOrder:  "3rd-order reference",
	FourthOrder: "4th-order reference",
}

// Label returns the human readable tier label.
func (t Tier) Label() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return fmt.Sprintf("tier %d", int(t))
}

// String implements fmt.Stringer.
func (t Tier) String() string { return t.Label() }

// MarshalJSON writes the tier as its label.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Label())
}

// UnmarshalJSON accepts either the label or the ordinal.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Tier(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for tier, label := range tierLabels {
		if label == s {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", s)
}

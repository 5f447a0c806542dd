// Package algo holds the pure numeric core of foothold: normalization, gap filling,
// polygon-area scoring and the two ranking variants.
package algo

import (
	"math"

	"github.com/huangsam/foothold/schema"
)

// NormalizedMax is the upper bound of the normalized scale.
const NormalizedMax = 10.0

// isMissing treats NaN and infinities as absent measurements.
func isMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Normalize rescales every criterion independently onto 0..10 using the min and max
// of its present values: round(((x-min)/(max-min))*10, 2). Missing cells stay missing.
// A constant criterion maps every present value to 0. The returned anomalies are
// MissingCriterionError and DegenerateNormalizationWarning values; neither stops
// the computation.
func Normalize(ds schema.Dataset) (schema.NormalizedMatrix, []error) {
	names := ds.Layout.Flatten()
	width := len(names)

	values := make(map[string][]float64, len(ds.Entities))
	for _, e := range ds.Entities {
		vec := make([]float64, width)
		for i := range vec {
			vec[i] = math.NaN()
		}
		values[e.Name] = vec
	}

	var anomalies []error
	for col, name := range names {
		lo, hi := math.Inf(1), math.Inf(-1)
		present := 0
		for _, e := range ds.Entities {
			x, ok := cell(e, col)
			if !ok {
				continue
			}
			present++
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}

		switch {
		case present == 0:
			anomalies = append(anomalies, &MissingCriterionError{Criterion: name})
			continue
		case hi == lo:
			anomalies = append(anomalies, &DegenerateNormalizationWarning{Criterion: name, Value: lo})
		}

		for _, e := range ds.Entities {
			x, ok := cell(e, col)
			if !ok {
				continue
			}
			if hi == lo {
				values[e.Name][col] = 0
				continue
			}
			values[e.Name][col] = round2((x - lo) / (hi - lo) * NormalizedMax)
		}
	}

	return schema.NewNormalizedMatrix(ds.Layout, ds.EntityNames(), values), anomalies
}

// cell returns the raw measurement at col, treating short rows as missing.
func cell(e schema.EntityRow, col int) (float64, bool) {
	if col >= len(e.Raw) || isMissing(e.Raw[col]) {
		return 0, false
	}
	return e.Raw[col], true
}

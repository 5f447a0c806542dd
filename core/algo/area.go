package algo

import (
	"errors"
	"math"

	"github.com/huangsam/foothold/schema"
)

// PolygonArea places value i at angle 2*pi*i/n and returns the shoelace area of the
// resulting radar polygon. Vectors with fewer than three finite values return 0 and
// an *InvalidScoreInputError; otherwise missing radii count as 0.
func PolygonArea(values []float64) (float64, error) {
	return PolygonAreaOffset(values, 0)
}

// PolygonAreaOffset is PolygonArea with every angle rotated by offset radians.
// The area does not depend on offset.
func PolygonAreaOffset(values []float64, offset float64) (float64, error) {
	n := len(values)
	finite := 0
	for _, v := range values {
		if !isMissing(v) {
			finite++
		}
	}
	if finite < MinFiniteValues {
		return 0, &InvalidScoreInputError{Finite: finite}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, v := range values {
		r := v
		if isMissing(r) {
			r = 0
		}
		theta := offset + 2*math.Pi*float64(i)/float64(n)
		xs[i] = r * math.Cos(theta)
		ys[i] = r * math.Sin(theta)
	}

	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += xs[i]*ys[j] - ys[i]*xs[j]
	}
	return 0.5 * math.Abs(sum), nil
}

// ScoreEntity gap-fills a normalized vector and computes its area. The returned
// error, when not nil, is an *InvalidScoreInputError naming the entity; the scored
// entity is usable either way.
func ScoreEntity(name string, vector []float64, criteria []string) (schema.ScoredEntity, error) {
	filledVec, filled := FillGaps(vector, criteria)
	area, err := PolygonArea(filledVec)
	var invalid *InvalidScoreInputError
	if errors.As(err, &invalid) {
		invalid.Entity = name
	}
	return schema.ScoredEntity{
		Name:   name,
		Vector: filledVec,
		Area:   area,
		Filled: filled,
	}, err
}

// Package radar lays criteria out on radar axes and builds chart geometry
// that an external renderer can draw.
package radar

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/foothold/schema"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// AxisLength is the radius of a full-scale axis.
const AxisLength = 10.0

// Feature kinds written to the "kind" property.
const (
	KindEntity = "entity"
	KindAxis   = "axis"
	KindSphere = "sphere"
)

// sphereArcs are the angular ranges, in degrees, that each sphere owns in the
// sphere layout. Each arc sits inside its quadrant with a 15 degree margin.
var sphereArcs = map[schema.Sphere][2]float64{
	schema.Political: {15, 75},
	schema.Economic:  {105, 165},
	schema.Social:    {195, 255},
	schema.Spiritual: {285, 345},
}

// Axis is the direction a criterion is drawn in.
type Axis struct {
	Criterion string
	Sphere    schema.Sphere
	Angle     float64 // radians, counter-clockwise from the positive x axis
}

// Degrees returns the axis angle in degrees.
func (a Axis) Degrees() float64 {
	return a.Angle * 180 / math.Pi
}

// Axes returns one axis per criterion in vector order.
//
// The equal layout spaces all axes 2*pi/n apart starting at 0, the same angles the
// area score uses. The sphere layout gives every sphere a fixed quadrant and spaces
// its criteria evenly inside the sphere's arc, so a sphere with k criteria places
// them span/(k+1) apart, away from the arc ends.
func Axes(layout schema.Layout, mode schema.ChartLayout) []Axis {
	criteria := layout.Criteria()
	axes := make([]Axis, 0, len(criteria))

	if mode != schema.SphereLayout {
		n := float64(len(criteria))
		for i, c := range criteria {
			axes = append(axes, Axis{Criterion: c.Name, Sphere: c.Sphere, Angle: 2 * math.Pi * float64(i) / n})
		}
		return axes
	}

	for _, sc := range layout.Spheres {
		arc := sphereArcs[sc.Sphere]
		step := (arc[1] - arc[0]) / float64(len(sc.Criteria)+1)
		for i, name := range sc.Criteria {
			deg := arc[0] + step*float64(i+1)
			axes = append(axes, Axis{Criterion: name, Sphere: sc.Sphere, Angle: deg * math.Pi / 180})
		}
	}
	return axes
}

// Polygon places each value on its axis and closes the ring. Missing values sit
// at the centre. The vector must be aligned to axes.
func Polygon(axes []Axis, vector []float64) (*geom.Polygon, error) {
	if len(vector) != len(axes) {
		return nil, fmt.Errorf("vector has %d values, chart has %d axes", len(vector), len(axes))
	}
	if len(axes) < 3 {
		return nil, fmt.Errorf("a radar polygon needs at least 3 axes, got %d", len(axes))
	}

	flat := make([]float64, 0, 2*(len(axes)+1))
	for i, a := range axes {
		r := vector[i]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			r = 0
		}
		flat = append(flat, round6(r*math.Cos(a.Angle)), round6(r*math.Sin(a.Angle)))
	}
	flat = append(flat, flat[0], flat[1])
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}), nil
}

// Build assembles a feature collection with one polygon per entity followed by one
// line string per axis. In the sphere layout a labelled point marks each quadrant.
// When rankings is not empty, entities follow ranking order and carry their tier;
// otherwise they follow the order of scored.
func Build(layout schema.Layout, scored []schema.ScoredEntity, rankings []schema.RankedEntity, mode schema.ChartLayout) (*geojson.FeatureCollection, error) {
	axes := Axes(layout, mode)
	byName := make(map[string]schema.ScoredEntity, len(scored))
	for _, s := range scored {
		byName[s.Name] = s
	}

	order := make([]string, 0, len(scored))
	tiers := make(map[string]schema.RankedEntity, len(rankings))
	if len(rankings) > 0 {
		for _, r := range rankings {
			order = append(order, r.Name)
			tiers[r.Name] = r
		}
	} else {
		for _, s := range scored {
			order = append(order, s.Name)
		}
	}

	fc := &geojson.FeatureCollection{}
	for _, name := range order {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no scored vector for %q", name)
		}
		poly, err := Polygon(axes, s.Vector)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		props := map[string]any{
			"kind":   KindEntity,
			"entity": name,
			"area":   round6(s.Area),
			"drawn":  round6(poly.Area()),
			"filled": slices.Clone(s.Filled),
		}
		if r, ok := tiers[name]; ok {
			props["tier"] = r.Tier.Label()
			props["tier_order"] = int(r.Tier)
			props["score"] = round6(r.Score)
		}
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: poly, Properties: props})
	}

	for _, a := range axes {
		line := geom.NewLineStringFlat(geom.XY, []float64{
			0, 0,
			round6(AxisLength * math.Cos(a.Angle)), round6(AxisLength * math.Sin(a.Angle)),
		})
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: line,
			Properties: map[string]any{
				"kind":      KindAxis,
				"criterion": a.Criterion,
				"sphere":    a.Sphere.String(),
				"angle_deg": round6(a.Degrees()),
			},
		})
	}

	if mode == schema.SphereLayout {
		for _, sc := range layout.Spheres {
			arc := sphereArcs[sc.Sphere]
			mid := (arc[0] + arc[1]) / 2 * math.Pi / 180
			r := AxisLength / 2 * math.Sqrt2
			pt := geom.NewPointFlat(geom.XY, []float64{round6(r * math.Cos(mid)), round6(r * math.Sin(mid))})
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry:   pt,
				Properties: map[string]any{"kind": KindSphere, "sphere": sc.Sphere.String()},
			})
		}
	}
	return fc, nil
}

// Encode serializes a feature collection as GeoJSON.
func Encode(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return data, nil
}

// round6 trims floating point noise such as 6.1e-16 for cos(pi/2).
func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Package schema has the models, enums and record types shared by every part of foothold.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Criterion is a single measurable indicator attached to exactly one sphere.
type Criterion struct {
	Name   string `json:"name"`
	Sphere Sphere `json:"sphere"`
}

// SphereCriteria is one sphere with its criteria in insertion order.
type SphereCriteria struct {
	Sphere   Sphere   `json:"sphere"`
	Criteria []string `json:"criteria"`
}

// Layout is the ordered Sphere -> Criterion assignment of a dataset.
// Spheres appear in AllSpheres order, criteria keep the order they were declared in.
// Every vector in foothold is aligned to Flatten().
type Layout struct {
	Spheres []SphereCriteria `json:"spheres"`
}

// NewLayout groups the criteria sphere-major while preserving intra-sphere order.
// Duplicate or blank criterion names are rejected.
func NewLayout(criteria []Criterion) (Layout, error) {
	seen := make(map[string]struct{}, len(criteria))
	buckets := make(map[Sphere][]string, len(AllSpheres))
	for _, c := range criteria {
		if c.Name == "" {
			return Layout{}, fmt.Errorf("criterion name cannot be blank")
		}
		if !c.Sphere.Valid() {
			return Layout{}, fmt.Errorf("criterion %q has invalid sphere %d", c.Name, c.Sphere)
		}
		if _, ok := seen[c.Name]; ok {
			return Layout{}, fmt.Errorf("duplicate criterion %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		buckets[c.Sphere] = append(buckets[c.Sphere], c.Name)
	}
	var layout Layout
	for _, s := range AllSpheres {
		if names := buckets[s]; len(names) > 0 {
			layout.Spheres = append(layout.Spheres, SphereCriteria{Sphere: s, Criteria: names})
		}
	}
	return layout, nil
}

// Len returns the total number of criteria.
func (l Layout) Len() int {
	n := 0
	for _, sc := range l.Spheres {
		n += len(sc.Criteria)
	}
	return n
}

// Flatten returns the criterion names in vector order.
func (l Layout) Flatten() []string {
	out := make([]string, 0, l.Len())
	for _, sc := range l.Spheres {
		out = append(out, sc.Criteria...)
	}
	return out
}

// Criteria returns the criteria with their spheres in vector order.
func (l Layout) Criteria() []Criterion {
	out := make([]Criterion, 0, l.Len())
	for _, sc := range l.Spheres {
		for _, name := range sc.Criteria {
			out = append(out, Criterion{Name: name, Sphere: sc.Sphere})
		}
	}
	return out
}

// Index returns the vector position of a criterion.
func (l Layout) Index(name string) (int, bool) {
	i := slices.Index(l.Flatten(), name)
	return i, i >= 0
}

// EntityRow is one entity's raw measurements aligned to Layout.Flatten().
// Missing measurements are NaN.
type EntityRow struct {
	Name string
	Raw  []float64
}

// Dataset is the raw tabular input: entities x criteria grouped into spheres.
type Dataset struct {
	Layout   Layout
	Entities []EntityRow
}

// EntityNames returns the entity names in row order.
func (d Dataset) EntityNames() []string {
	out := make([]string, len(d.Entities))
	for i, e := range d.Entities {
		out[i] = e.Name
	}
	return out
}

// CriterionValue is a single normalized cell. Value is NaN when missing.
type CriterionValue struct {
	Criterion string
	Value     float64
}

// SphereValues groups an entity's normalized cells under their sphere.
type SphereValues struct {
	Sphere Sphere
	Values []CriterionValue
}

// NormalizedMatrix holds entity -> vector on the 0..10 scale. It is treated as an
// immutable snapshot: accessors hand out copies.
type NormalizedMatrix struct {
	Layout   Layout
	Entities []string
	values   map[string][]float64
}

// NewNormalizedMatrix builds a matrix from vectors aligned to layout.
func NewNormalizedMatrix(layout Layout, entities []string, values map[string][]float64) NormalizedMatrix {
	m := NormalizedMatrix{
		Layout:   layout,
		Entities: slices.Clone(entities),
		values:   make(map[string][]float64, len(values)),
	}
	for k, v := range values {
		m.values[k] = slices.Clone(v)
	}
	return m
}

// Vector returns a copy of the entity's normalized vector.
func (m NormalizedMatrix) Vector(entity string) ([]float64, bool) {
	v, ok := m.values[entity]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Has reports whether the entity is part of the matrix.
func (m NormalizedMatrix) Has(entity string) bool {
	_, ok := m.values[entity]
	return ok
}

// Grouped returns the entity's values organized sphere -> ordered (criterion, value).
func (m NormalizedMatrix) Grouped(entity string) ([]SphereValues, bool) {
	v, ok := m.values[entity]
	if !ok {
		return nil, false
	}
	out := make([]SphereValues, 0, len(m.Layout.Spheres))
	i := 0
	for _, sc := range m.Layout.Spheres {
		group := SphereValues{Sphere: sc.Sphere, Values: make([]CriterionValue, 0, len(sc.Criteria))}
		for _, name := range sc.Criteria {
			group.Values = append(group.Values, CriterionValue{Criterion: name, Value: v[i]})
			i++
		}
		out = append(out, group)
	}
	return out, true
}

// matrixWire is the JSON shape of a NormalizedMatrix; null marks a missing value.
type matrixWire struct {
	Layout   Layout                `json:"layout"`
	Entities []string              `json:"entities"`
	Values   map[string][]*float64 `json:"values"`
}

// MarshalJSON encodes missing values as null since JSON has no NaN.
func (m NormalizedMatrix) MarshalJSON() ([]byte, error) {
	wire := matrixWire{Layout: m.Layout, Entities: m.Entities, Values: make(map[string][]*float64, len(m.values))}
	for k, vec := range m.values {
		wire.Values[k] = ToNullable(vec)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *NormalizedMatrix) UnmarshalJSON(data []byte) error {
	var wire matrixWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Layout = wire.Layout
	m.Entities = wire.Entities
	m.values = make(map[string][]float64, len(wire.Values))
	width := wire.Layout.Len()
	for k, vec := range wire.Values {
		if len(vec) != width {
			return fmt.Errorf("entity %q has %d values, layout has %d criteria", k, len(vec), width)
		}
		m.values[k] = FromNullable(vec)
	}
	return nil
}

// ToNullable maps NaN to nil for serialization.
func ToNullable(vec []float64) []*float64 {
	out := make([]*float64, len(vec))
	for i, v := range vec {
		if !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}

// FromNullable maps nil back to NaN.
func FromNullable(vec []*float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	return out
}

// ScoredEntity is an entity with its gap-filled vector and polygon area.
type ScoredEntity struct {
	Name   string    // Entity name
	Vector []float64 // Gap-filled normalized vector
	Area   float64   // Radar polygon area
	Filled []string  // Criteria reconstructed by gap filling
}

// RankedEntity is one line of a ranking result.
type RankedEntity struct {
	Name      string                   `json:"entity"`
	Tier      Tier                     `json:"tier"`
	Score     float64                  `json:"score"`
	Breakdown map[BreakdownKey]float64 `json:"breakdown,omitempty"`
}

package algo

import (
	"fmt"
	"math"
	"sort"

	"github.com/huangsam/foothold/schema"
)

// Rank dispatches to the ranking variant. Both variants need at least MinSelection
// entities and are deterministic regardless of input order.
func Rank(variant schema.RankVariant, entities []schema.ScoredEntity) ([]schema.RankedEntity, error) {
	switch variant {
	case schema.VariantAreaConsensus:
		return RankAreaConsensus(entities)
	case schema.VariantFactorBlend:
		return RankFactorBlend(entities)
	default:
		return nil, fmt.Errorf("unknown ranking variant %q", variant)
	}
}

// RankAreaConsensus is Variant 1. The largest area is 1st-order and the smallest is
// 4th-order. Each entity in between is compared to the per-criterion mean of the
// middle group: more than half of its criteria at or above the mean makes it
// 2nd-order, otherwise 3rd-order. Output is ordered by tier, then by area.
func RankAreaConsensus(entities []schema.ScoredEntity) ([]schema.RankedEntity, error) {
	ordered, err := prepareSelection(entities)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Area > ordered[j].Area
	})

	last := len(ordered) - 1
	middle := ordered[1:last]
	means := columnMeans(middle)

	ranked := make([]schema.RankedEntity, 0, len(ordered))
	ranked = append(ranked, rankedWith(ordered[0], schema.FirstOrder, nil))
	for _, e := range middle {
		share := aboveAverageShare(e.Vector, means)
		tier := schema.ThirdOrder
		if share > 0.5 {
			tier = schema.SecondOrder
		}
		ranked = append(ranked, rankedWith(e, tier, map[schema.BreakdownKey]float64{
			schema.BreakdownAboveAvg: share,
		}))
	}
	ranked = append(ranked, rankedWith(ordered[last], schema.FourthOrder, nil))

	sortByTier(ranked)
	return ranked, nil
}

// RankFactorBlend is Variant 2. The entity with the highest value sum is 1st-order and
// the smallest area is 4th-order. The remaining entities, apart from the largest
// area, are ranked on two factors: the deficit sum of (10 - v) ascending and the
// area descending, then ordered by the mean of both ranks. The head of that blended
// order is 2nd-order and everyone after it 3rd-order. The largest area sits outside
// the blend and is 2nd-order next to the blended head. The leader keeps 1st-order
// even when it also holds the smallest or largest area.
func RankFactorBlend(entities []schema.ScoredEntity) ([]schema.RankedEntity, error) {
	ordered, err := prepareSelection(entities)
	if err != nil {
		return nil, err
	}

	sums := make([]float64, len(ordered))
	leader, minArea, maxArea := 0, 0, 0
	for i, e := range ordered {
		sums[i] = finiteSum(e.Vector)
		if sums[i] > sums[leader] {
			leader = i
		}
		if e.Area <= ordered[minArea].Area {
			minArea = i
		}
		if e.Area > ordered[maxArea].Area {
			maxArea = i
		}
	}

	var pool []int
	for i := range ordered {
		if i != leader && i != minArea && i != maxArea {
			pool = append(pool, i)
		}
	}

	type factors struct {
		deficit  float64
		deficitR int
		areaR    int
		blend    float64
	}
	f := make(map[int]*factors, len(pool))
	for _, i := range pool {
		f[i] = &factors{deficit: deficitSum(ordered[i].Vector)}
	}

	byDeficit := append([]int(nil), pool...)
	sort.SliceStable(byDeficit, func(a, b int) bool {
		return f[byDeficit[a]].deficit < f[byDeficit[b]].deficit
	})
	for r, i := range byDeficit {
		f[i].deficitR = r
	}

	byArea := append([]int(nil), pool...)
	sort.SliceStable(byArea, func(a, b int) bool {
		return ordered[byArea[a]].Area > ordered[byArea[b]].Area
	})
	for r, i := range byArea {
		f[i].areaR = r
	}

	blended := append([]int(nil), pool...)
	for _, i := range blended {
		f[i].blend = float64(f[i].deficitR+f[i].areaR) / 2
	}
	sort.SliceStable(blended, func(a, b int) bool {
		return f[blended[a]].blend < f[blended[b]].blend
	})


	breakdown := func(i int) map[schema.BreakdownKey]float64 {
		out := map[schema.BreakdownKey]float64{schema.BreakdownSum: sums[i]}
		if fi, ok := f[i]; ok {
			out[schema.BreakdownDeficit] = fi.deficit
			out[schema.BreakdownDeficitRk] = float64(fi.deficitR)
			out[schema.BreakdownAreaRk] = float64(fi.areaR)
			out[schema.BreakdownBlend] = fi.blend
		}
		return out
	}

	ranked := make([]schema.RankedEntity, 0, len(ordered))
	ranked = append(ranked, rankedWith(ordered[leader], schema.FirstOrder, breakdown(leader)))
	if len(blended) > 0 {
		ranked = append(ranked, rankedWith(ordered[blended[0]], schema.SecondOrder, breakdown(blended[0])))
	}
	if maxArea != leader && maxArea != minArea {
		ranked = append(ranked, rankedWith(ordered[maxArea], schema.SecondOrder, breakdown(maxArea)))
	}
	for _, i := range blended[min(1, len(blended)):] {
		ranked = append(ranked, rankedWith(ordered[i], schema.ThirdOrder, breakdown(i)))
	}
	if minArea != leader {
		ranked = append(ranked, rankedWith(ordered[minArea], schema.FourthOrder, breakdown(minArea)))
	}

	sortByTier(ranked)
	return ranked, nil
}

// prepareSelection validates the selection size and returns a copy sorted by name,
// which fixes every tie-break below.
func prepareSelection(entities []schema.ScoredEntity) ([]schema.ScoredEntity, error) {
	if len(entities) < MinSelection {
		return nil, &InsufficientSelectionError{Count: len(entities), Min: MinSelection}
	}
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("duplicate entity %q in selection", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	ordered := append([]schema.ScoredEntity(nil), entities...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})
	return ordered, nil
}

func rankedWith(e schema.ScoredEntity, tier schema.Tier, extra map[schema.BreakdownKey]float64) schema.RankedEntity {
	breakdown := map[schema.BreakdownKey]float64{schema.BreakdownArea: e.Area}
	for k, v := range extra {
		breakdown[k] = v
	}
	return schema.RankedEntity{Name: e.Name, Tier: tier, Score: e.Area, Breakdown: breakdown}
}

func sortByTier(ranked []schema.RankedEntity) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Tier < ranked[j].Tier
	})
}

// columnMeans averages each criterion over the finite values of the group.
// A criterion with no finite value has a NaN mean.
func columnMeans(group []schema.ScoredEntity) []float64 {
	if len(group) == 0 {
		return nil
	}
	width := len(group[0].Vector)
	means := make([]float64, width)
	for col := range width {
		sum, count := 0.0, 0
		for _, e := range group {
			if col < len(e.Vector) && !isMissing(e.Vector[col]) {
				sum += e.Vector[col]
				count++
			}
		}
		if count == 0 {
			means[col] = math.NaN()
			continue
		}
		means[col] = sum / float64(count)
	}
	return means
}

// aboveAverageShare is the fraction of comparable criteria where the value is at
// least the mean. Criteria with a NaN mean are not comparable; a NaN value never
// counts as above.
func aboveAverageShare(vector, means []float64) float64 {
	comparable, above := 0, 0
	for col, m := range means {
		if isMissing(m) {
			continue
		}
		comparable++
		if col < len(vector) && !isMissing(vector[col]) && vector[col] >= m {
			above++
		}
	}
	if comparable == 0 {
		return 0
	}
	return float64(above) / float64(comparable)
}

func finiteSum(vector []float64) float64 {
	var sum float64
	for _, v := range vector {
		if !isMissing(v) {
			sum += v
		}
	}
	return sum
}

// deficitSum adds up the distance of each value to the top of the scale.
// A missing value counts as the full distance.
func deficitSum(vector []float64) float64 {
	var sum float64
	for _, v := range vector {
		if isMissing(v) {
			sum += NormalizedMax
			continue
		}
		sum += NormalizedMax - v
	}
	return sum
}

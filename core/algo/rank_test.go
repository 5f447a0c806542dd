package algo

import (
	"errors"
	"testing"

	"github.com/huangsam/foothold/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(name string, area float64, vector ...float64) schema.ScoredEntity {
	return schema.ScoredEntity{Name: name, Area: area, Vector: vector}
}

// tiersOf flattens a ranking into name -> tier, keeping output order in names.
func tiersOf(ranked []schema.RankedEntity) (names []string, tiers map[string]schema.Tier) {
	tiers = make(map[string]schema.Tier, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Name)
		tiers[r.Name] = r.Tier
	}
	return names, tiers
}

func reversed(in []schema.ScoredEntity) []schema.ScoredEntity {
	out := make([]schema.ScoredEntity, len(in))
	for i, e := range in {
		out[len(in)-1-i] = e
	}
	return out
}

func TestRankInsufficientSelection(t *testing.T) {
	selections := [][]schema.ScoredEntity{
		nil,
		{scored("A", 1, 1)},
		{scored("A", 1, 1), scored("B", 2, 2)},
	}
	for _, variant := range []schema.RankVariant{schema.VariantAreaConsensus, schema.VariantFactorBlend} {
		for _, sel := range selections {
			ranked, err := Rank(variant, sel)
			assert.Nil(t, ranked)
			var insufficient *InsufficientSelectionError
			require.True(t, errors.As(err, &insufficient))
			assert.Equal(t, len(sel), insufficient.Count)
			assert.Equal(t, MinSelection, insufficient.Min)
		}
	}
}

func TestRankRejectsBadInput(t *testing.T) {
	three := []schema.ScoredEntity{scored("A", 1, 1), scored("B", 2, 2), scored("C", 3, 3)}
	_, err := Rank("9", three)
	assert.Error(t, err)

	dup := []schema.ScoredEntity{scored("A", 1, 1), scored("A", 2, 2), scored("C", 3, 3)}
	_, err = Rank(schema.VariantAreaConsensus, dup)
	assert.Error(t, err)
}

func TestRankAreaConsensusThreeEntities(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("C", 20, 1, 2, 3),
		scored("A", 80, 9, 9, 9),
		scored("B", 50, 4, 5, 6),
	}

	ranked, err := RankAreaConsensus(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["A"])
	assert.Equal(t, schema.SecondOrder, tiers["B"])
	assert.Equal(t, schema.FourthOrder, tiers["C"])
	assert.Equal(t, 80.0, ranked[0].Score)
	assert.Equal(t, 1.0, ranked[1].Breakdown[schema.BreakdownAboveAvg])
}

func TestRankAreaConsensusHalfIsNotEnough(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("A", 100, 9, 9),
		scored("B", 80, 8, 8),
		scored("C", 60, 5, 5),
		scored("D", 40, 9, 1),
		scored("E", 10, 1, 1),
	}

	ranked, err := RankAreaConsensus(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["A"])
	assert.Equal(t, schema.SecondOrder, tiers["B"])
	assert.Equal(t, schema.ThirdOrder, tiers["C"])
	assert.Equal(t, schema.ThirdOrder, tiers["D"])
	assert.Equal(t, schema.FourthOrder, tiers["E"])
	assert.Equal(t, 0.5, ranked[2].Breakdown[schema.BreakdownAboveAvg])
}

func TestRankAreaConsensusSortedByTier(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("A", 100, 5, 5),
		scored("B", 80, 1, 1),
		scored("C", 60, 9, 9),
		scored("D", 40, 8, 8),
		scored("E", 10, 0, 0),
	}

	ranked, err := RankAreaConsensus(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, schema.ThirdOrder, tiers["B"])
	assert.Equal(t, schema.SecondOrder, tiers["C"])
	assert.Equal(t, schema.SecondOrder, tiers["D"])
	assert.Equal(t, []string{"A", "C", "D", "B", "E"}, names)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].Tier, ranked[i].Tier)
	}
}

func TestRankAreaConsensusTiesAreDeterministic(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("B", 50, 5, 5, 5),
		scored("C", 50, 5, 5, 5),
		scored("A", 50, 5, 5, 5),
	}

	first, err := RankAreaConsensus(entities)
	require.NoError(t, err)
	second, err := RankAreaConsensus(reversed(entities))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	_, tiers := tiersOf(first)
	assert.Equal(t, schema.FirstOrder, tiers["A"])
	assert.Equal(t, schema.FourthOrder, tiers["C"])
}

func TestRankFactorBlend(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("L", 40, 10, 10, 10),
		scored("M", 90, 5, 5, 5),
		scored("N", 5, 1, 1, 1),
		scored("P", 30, 6, 6, 6),
		scored("Q", 20, 8, 8, 8),
		scored("R", 25, 4, 4, 4),
	}

	ranked, err := RankFactorBlend(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"L", "P", "M", "Q", "R", "N"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["L"])
	assert.Equal(t, schema.SecondOrder, tiers["P"], "head of the blended order")
	assert.Equal(t, schema.SecondOrder, tiers["M"], "largest area outside the blend")
	assert.Equal(t, schema.ThirdOrder, tiers["Q"])
	assert.Equal(t, schema.ThirdOrder, tiers["R"])
	assert.Equal(t, schema.FourthOrder, tiers["N"])

	m := ranked[2].Breakdown
	assert.NotContains(t, m, schema.BreakdownBlend)
	assert.Equal(t, 15.0, m[schema.BreakdownSum])

	p := ranked[1].Breakdown
	assert.Equal(t, 12.0, p[schema.BreakdownDeficit])
	assert.Equal(t, 1.0, p[schema.BreakdownDeficitRk])
	assert.Equal(t, 0.0, p[schema.BreakdownAreaRk])
	assert.Equal(t, 0.5, p[schema.BreakdownBlend])
	assert.Equal(t, 30.0, ranked[0].Breakdown[schema.BreakdownSum])
	assert.Equal(t, 40.0, ranked[0].Score)
}

func TestRankFactorBlendSingleBlendedBesideMaxArea(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("L", 100, 10, 10, 10, 0),
		scored("M", 105, 8, 7, 7, 7),
		scored("B", 50, 5, 5, 5, 5),
		scored("C", 2, 1, 1, 1, 1),
	}

	ranked, err := RankFactorBlend(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"L", "B", "M", "C"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["L"])
	assert.Equal(t, schema.SecondOrder, tiers["B"])
	assert.Equal(t, schema.SecondOrder, tiers["M"])
	assert.Equal(t, schema.FourthOrder, tiers["C"])
	assert.Equal(t, 0.0, ranked[1].Breakdown[schema.BreakdownBlend])
}

func TestRankFactorBlendLeaderHasMaxArea(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("L", 90, 10, 10, 10),
		scored("A", 50, 5, 5, 5),
		scored("B", 40, 7, 7, 7),
		scored("N", 5, 1, 1, 1),
	}

	ranked, err := RankFactorBlend(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"L", "A", "B", "N"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["L"])
	assert.Equal(t, schema.SecondOrder, tiers["A"])
	assert.Equal(t, schema.ThirdOrder, tiers["B"])
	assert.Equal(t, schema.FourthOrder, tiers["N"])
}

func TestRankFactorBlendLeaderHasMinArea(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("L", 1, 10, 10, 10),
		scored("X", 90, 2, 2, 2),
		scored("Y", 50, 3, 3, 3),
	}

	ranked, err := RankFactorBlend(entities)
	require.NoError(t, err)

	names, tiers := tiersOf(ranked)
	assert.Equal(t, []string{"L", "Y", "X"}, names)
	assert.Equal(t, schema.FirstOrder, tiers["L"])
	assert.Equal(t, schema.SecondOrder, tiers["Y"])
	assert.Equal(t, schema.SecondOrder, tiers["X"])
}

func TestRankFactorBlendCoversEveryEntityOnce(t *testing.T) {
	entities := []schema.ScoredEntity{
		scored("a", 12, 3, nan, 4),
		scored("b", 33, 8, 2, 6),
		scored("c", 33, 1, 9, 9),
		scored("d", 7, 2, 2, 2),
		scored("e", 25, 5, 5, 5),
		scored("f", 18, 9, 0, 1),
		scored("g", 7, 6, 1, 0),
	}

	ranked, err := RankFactorBlend(entities)
	require.NoError(t, err)
	require.Len(t, ranked, len(entities))

	names, tiers := tiersOf(ranked)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f", "g"}, names)

	count := map[schema.Tier]int{}
	for _, tier := range tiers {
		count[tier]++
	}
	assert.Equal(t, 1, count[schema.FirstOrder])
	assert.Equal(t, 2, count[schema.SecondOrder])
	assert.Equal(t, 1, count[schema.FourthOrder])
	assert.Equal(t, 3, count[schema.ThirdOrder])
	assert.Equal(t, schema.FirstOrder, tiers["c"])
	assert.Equal(t, schema.SecondOrder, tiers["b"])
	assert.Equal(t, schema.FourthOrder, tiers["g"])

	again, err := RankFactorBlend(reversed(entities))
	require.NoError(t, err)
	assert.Equal(t, ranked, again)
}

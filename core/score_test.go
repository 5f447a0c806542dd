package core

import (
	"context"
	"math"
	"testing"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/ingest"
	"github.com/huangsam/foothold/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() contract.DatasetLoader {
	return ingest.NewLoader()
}

func sampleMatrix(t *testing.T) schema.NormalizedMatrix {
	t.Helper()
	layout, err := schema.NewLayout([]schema.Criterion{
		{Name: "a", Sphere: schema.Political},
		{Name: "b", Sphere: schema.Economic},
		{Name: "c", Sphere: schema.Social},
		{Name: "d", Sphere: schema.Spiritual},
	})
	require.NoError(t, err)
	nan := math.NaN()
	return schema.NewNormalizedMatrix(layout, []string{"Kazan", "Omsk", "Perm", ingest.OriginEntity}, map[string][]float64{
		"Kazan":             {10, 10, 10, 10},
		"Omsk":              {2, nan, 4, nan},
		"Perm":              {nan, nan, nan, 5},
		ingest.OriginEntity: {0, 0, 0, 0},
	})
}

func TestScoreEntities(t *testing.T) {
	matrix := sampleMatrix(t)

	for _, workers := range []int{0, 1, 8} {
		scored, err := ScoreEntities(context.Background(), matrix, []string{"Omsk", "Kazan", "Perm"}, workers)
		require.NoError(t, err)
		require.Len(t, scored, 3)

		assert.Equal(t, "Omsk", scored[0].Name, "results keep the requested order")
		assert.Equal(t, []float64{2, 3, 4, 3}, scored[0].Vector)
		assert.Equal(t, []string{"b", "d"}, scored[0].Filled)

		assert.InDelta(t, 200, scored[1].Area, 1e-9)
		assert.Empty(t, scored[1].Filled)

		assert.Equal(t, []float64{5, 5, 5, 5}, scored[2].Vector)
	}
}

func TestScoreEntitiesErrors(t *testing.T) {
	matrix := sampleMatrix(t)

	_, err := ScoreEntities(context.Background(), matrix, []string{"Kazan", "Atlantis"}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Atlantis")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ScoreEntities(ctx, matrix, []string{"Kazan"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveSelection(t *testing.T) {
	matrix := sampleMatrix(t)

	all, err := resolveSelection(matrix, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Omsk", "Perm"}, all, "origin anchor is not selected by default")

	picked, err := resolveSelection(matrix, []string{"Perm", "Kazan", "Perm", ingest.OriginEntity})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Perm", ingest.OriginEntity}, picked)

	_, err = resolveSelection(matrix, []string{"Kazan", "X", "Y"})
	require.Error(t, err)
	assert.Equal(t, "unknown cities: X, Y", err.Error())
}

func TestSubMatrix(t *testing.T) {
	sub := subMatrix(sampleMatrix(t), []string{"Perm", "Kazan"})
	assert.Equal(t, []string{"Perm", "Kazan"}, sub.Entities)
	assert.False(t, sub.Has("Omsk"))
	v, ok := sub.Vector("Kazan")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 10, 10, 10}, v)
}

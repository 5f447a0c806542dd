package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/foothold/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), schema.VariantAreaConsensus, "cities.xlsx", map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, time.Now(), 4))
	assert.NoError(t, store.RecordRanking(1, schema.RankedEntity{Name: "Kazan", Tier: schema.FirstOrder}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun(start, schema.VariantFactorBlend, "/data/cities.xlsx", map[string]any{
		"variant": "2",
		"cities":  []string{"Kazan", "Omsk", "Perm", "Tula"},
	})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	ranked := []schema.RankedEntity{
		{Name: "Kazan", Tier: schema.FirstOrder, Score: 31.5},
		{Name: "Perm", Tier: schema.SecondOrder, Score: 1},
		{Name: "Tula", Tier: schema.ThirdOrder, Score: 2.5},
		{Name: "Omsk", Tier: schema.FourthOrder, Score: 12.25},
	}
	for _, r := range ranked {
		require.NoError(t, store.RecordRanking(runID, r))
	}
	require.NoError(t, store.EndRun(runID, time.Now(), len(ranked)))

	// Recording the same entity twice in a run violates the primary key
	assert.Error(t, store.RecordRanking(runID, ranked[0]))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	_, err = uuid.Parse(run.RunKey)
	assert.NoError(t, err, "run key should be a UUID")
	assert.Equal(t, "2", run.Variant)
	assert.Equal(t, "/data/cities.xlsx", run.Source)
	assert.WithinDuration(t, start, run.StartTime, time.Millisecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDuration)
	assert.GreaterOrEqual(t, *run.RunDuration, int64(2000))
	require.NotNil(t, run.EntityCount)
	assert.Equal(t, int32(4), *run.EntityCount)
	require.NotNil(t, run.ConfigParams)
	assert.Contains(t, *run.ConfigParams, `"variant":"2"`)

	rankings, err := store.GetAllRankings()
	require.NoError(t, err)
	require.Len(t, rankings, 4)
	assert.Equal(t, "Kazan", rankings[0].Entity)
	assert.Equal(t, "1st-order reference", rankings[0].Tier)
	assert.Equal(t, int32(1), rankings[0].TierOrder)
	assert.Equal(t, "Omsk", rankings[3].Entity)
	assert.InDelta(t, 12.25, rankings[3].Score, 1e-9)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 4, status.TotalEntitiesRanked)
	assert.Equal(t, int64(1), status.TableSizes[runsTable])
	assert.Equal(t, int64(4), status.TableSizes[rankingsTable])
}

func TestRunStore_EndRunUnknown(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun(404, time.Now(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 404")
}

func TestRunStore_ReopenKeepsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	for range 3 {
		_, err := store.BeginRun(time.Now(), schema.VariantAreaConsensus, "a.csv", nil)
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	reopened, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	status, err := reopened.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.Equal(t, 0, status.TotalEntitiesRanked)
}

func TestMigrateRuns(t *testing.T) {
	_, err := MigrateRuns(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")

	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	result, err := MigrateRuns(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, uint(2), result.To)
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	result, err = MigrateRuns(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Contains(t, result.String(), "already at version 2")

	result, err = MigrateRuns(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), result.From)
	assert.Equal(t, uint(1), result.To)

	result, err = MigrateRuns(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), result.To)
	assert.Contains(t, result.String(), "from version 1 to version 0")

	// The store re-applies every migration on open
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestExecuteRunExport(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, ExecuteRunExport(nil, "x", &out))

	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	prefix := filepath.Join(t.TempDir(), "history")
	err = ExecuteRunExport(store, prefix, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run data")

	err = ExecuteRunExport(store, "", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")

	runID, err := store.BeginRun(time.Now(), schema.VariantAreaConsensus, "cities.csv", nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordRanking(runID, schema.RankedEntity{Name: "Kazan", Tier: schema.FirstOrder, Score: 10}))
	require.NoError(t, store.EndRun(runID, time.Now(), 1))

	require.NoError(t, ExecuteRunExport(store, prefix, &out))
	assert.Contains(t, out.String(), "Exported 1 runs")
	assert.Contains(t, out.String(), "Exported 1 ranking records")
	for _, suffix := range []string{".runs.parquet", ".rankings.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fhparquet "github.com/huangsam/foothold/internal/parquet"
)

func testLayout(t *testing.T) schema.Layout {
	t.Helper()
	layout, err := schema.NewLayout([]schema.Criterion{
		{Name: "Turnout", Sphere: schema.Political},
		{Name: "GDP", Sphere: schema.Economic},
		{Name: "Clinics", Sphere: schema.Social},
		{Name: "Museums", Sphere: schema.Spiritual},
	})
	require.NoError(t, err)
	return layout
}

func testConfig() *contract.Config {
	return &contract.Config{
		Output:       schema.TextOut,
		Precision:    2,
		Workers:      4,
		Width:        200,
		CacheBackend: schema.SQLiteBackend,
	}
}

func testResult(t *testing.T) schema.RankResult {
	t.Helper()
	return schema.RankResult{
		Variant: schema.VariantAreaConsensus,
		Source:  "cities.xlsx",
		Layout:  testLayout(t),
		RunID:   12,
		Rankings: []schema.RankedEntity{
			{Name: "Kazan", Tier: schema.FirstOrder, Score: 150, Breakdown: map[schema.BreakdownKey]float64{schema.BreakdownArea: 150}},
			{Name: "Perm", Tier: schema.SecondOrder, Score: 60.5, Breakdown: map[schema.BreakdownKey]float64{
				schema.BreakdownArea: 60.5, schema.BreakdownAboveAvg: 0.75,
			}},
			{Name: "Omsk", Tier: schema.FourthOrder, Score: 2, Breakdown: map[schema.BreakdownKey]float64{schema.BreakdownArea: 2}},
		},
		Scored: []schema.ScoredEntity{
			{Name: "Kazan", Vector: []float64{10, 10, 8, 7}, Area: 150},
			{Name: "Omsk", Vector: []float64{1, 1, 1, math.NaN()}, Area: 2},
			{Name: "Perm", Vector: []float64{5, 6, 5, 6}, Area: 60.5, Filled: []string{"Clinics"}},
		},
	}
}

func TestWriteRankingsTable(t *testing.T) {
	cfg := testConfig()
	cfg.Explain = true
	cfg.Detail = true
	cfg.Audit = true

	var buf bytes.Buffer
	require.NoError(t, writeRankingsTable(&buf, testResult(t), cfg, createFormatter(2), time.Second))
	out := buf.String()

	assert.Contains(t, out, "Kazan")
	assert.Contains(t, out, "1st-order reference")
	assert.Contains(t, out, "above_avg_share=0.75")
	assert.Contains(t, out, "1.00 1.00 1.00 -")
	assert.Contains(t, out, "Clinics")
	assert.Contains(t, out, "Ranked 3 cities on 4 criteria with variant 1")
	assert.Contains(t, out, "Recorded as run 12")
	assert.Less(t, strings.Index(out, "Kazan"), strings.Index(out, "Omsk"))
}

func TestWriteRankingsCSV(t *testing.T) {
	cfg := testConfig()
	cfg.Explain = true
	cfg.Detail = true
	cfg.Audit = true

	var buf bytes.Buffer
	require.NoError(t, writeRankingsCSV(&buf, testResult(t), cfg, createFormatter(2)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	header := records[0]
	assert.Equal(t, []string{"rank", "entity", "tier", "tier_order", "score"}, header[:5])
	assert.Contains(t, header, "blend")
	assert.Contains(t, header, "Museums")
	assert.Equal(t, "filled", header[len(header)-1])

	assert.Equal(t, []string{"2", "Perm", "2nd-order reference", "2", "60.50"}, records[2][:5])
	assert.Equal(t, "Clinics", records[2][len(header)-1])
	// Omsk has no value for the last criterion
	assert.Equal(t, "", records[3][len(header)-2])
}

func TestWriteRankingsJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Detail = true

	var buf bytes.Buffer
	require.NoError(t, writeRankingsJSON(&buf, testResult(t), cfg))

	var doc struct {
		Variant  string   `json:"variant"`
		RunID    int64    `json:"run_id"`
		Criteria []string `json:"criteria"`
		Rankings []struct {
			Rank   int        `json:"rank"`
			Entity string     `json:"entity"`
			Label  string     `json:"label"`
			Tier   string     `json:"tier"`
			Score  float64    `json:"score"`
			Vector []*float64 `json:"vector"`
			Filled []string   `json:"filled"`
		} `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "1", doc.Variant)
	assert.Equal(t, int64(12), doc.RunID)
	assert.Equal(t, []string{"Turnout", "GDP", "Clinics", "Museums"}, doc.Criteria)
	require.Len(t, doc.Rankings, 3)
	assert.Equal(t, 3, doc.Rankings[2].Rank)
	assert.Equal(t, "Omsk", doc.Rankings[2].Entity)
	assert.Equal(t, "4th-order reference", doc.Rankings[2].Tier)
	require.Len(t, doc.Rankings[2].Vector, 4)
	assert.Nil(t, doc.Rankings[2].Vector[3])
	assert.Nil(t, doc.Rankings[1].Filled, "audit is off")
}

func TestWriteRankResultsParquet(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.ParquetOut
	assert.Error(t, WriteRankResults(testResult(t), cfg, time.Second))

	cfg.OutputFile = filepath.Join(t.TempDir(), "rank.parquet")
	require.NoError(t, WriteRankResults(testResult(t), cfg, time.Second))

	f, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	reader := parquet.NewGenericReader[fhparquet.RankingRow](f)
	defer func() { _ = reader.Close() }()
	assert.Equal(t, int64(3), reader.NumRows())
}

func TestWriteMatrix(t *testing.T) {
	layout := testLayout(t)
	matrix := schema.NewNormalizedMatrix(layout, []string{"Kazan", "Omsk"}, map[string][]float64{
		"Kazan": {10, 10, 8, 7},
		"Omsk":  {0, math.NaN(), 0, 0},
	})

	t.Run("csv mirrors input layout", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeMatrixCSV(&buf, matrix, createFormatter(2)))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"city", "Turnout", "GDP", "Clinics", "Museums"}, records[0])
		assert.Equal(t, []string{"sphere", "Political", "Economic", "Social", "Spiritual"}, records[1])
		assert.Equal(t, []string{"Omsk", "0.00", "", "0.00", "0.00"}, records[3])
	})

	t.Run("one table per sphere", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeMatrixTables(&buf, matrix, testConfig(), createFormatter(1), time.Second))
		out := buf.String()
		for _, s := range schema.AllSpheres {
			assert.Contains(t, out, s.String()+" sphere")
		}
		assert.Contains(t, out, "10.0")
		assert.Contains(t, out, "Normalized 2 cities on 4 criteria")
	})

	t.Run("json", func(t *testing.T) {
		cfg := testConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(t.TempDir(), "matrix.json")
		require.NoError(t, WriteMatrixResults(matrix, cfg, time.Second))

		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		var back schema.NormalizedMatrix
		require.NoError(t, json.Unmarshal(data, &back))
		v, ok := back.Vector("Omsk")
		require.True(t, ok)
		assert.True(t, math.IsNaN(v[1]))
	})
}

func TestWriteScores(t *testing.T) {
	layout := testLayout(t)
	scored := testResult(t).Scored

	t.Run("csv", func(t *testing.T) {
		cfg := testConfig()
		cfg.Detail = true
		var buf bytes.Buffer
		require.NoError(t, writeScoresCSV(&buf, scored, layout, cfg, createFormatter(2)))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"entity", "area", "filled", "Turnout", "GDP", "Clinics", "Museums"}, records[0])
		assert.Equal(t, []string{"Perm", "60.50", "Clinics", "5.00", "6.00", "5.00", "6.00"}, records[3])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeScoresJSON(&buf, scored, layout))
		assert.Contains(t, buf.String(), `"filled": []`)
		assert.Contains(t, buf.String(), "null")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeScoresTable(&buf, scored, layout, testConfig(), createFormatter(2), time.Second))
		assert.Contains(t, buf.String(), "Scored 3 cities on 4 criteria (1 values reconstructed)")
	})
}

func TestWriteChart(t *testing.T) {
	cfg := testConfig()
	cfg.OutputFile = filepath.Join(t.TempDir(), "chart.geojson")
	doc := []byte(`{"type":"FeatureCollection","features":[]}`)

	require.NoError(t, NewOutWriter().WriteChart(doc, cfg))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, doc, data)
}

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      contract.Config
		expected int
	}{
		{"wide terminal caps", contract.Config{Width: 300}, maxNameWidth},
		{"narrow terminal floors", contract.Config{Width: 40}, minNameWidth},
		{"plain columns", contract.Config{Width: 100}, 50},
		{"all optional columns", contract.Config{Width: 200, Explain: true, Detail: true, Audit: true}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getMaxTableNameWidth(&tt.cfg))
		})
	}
}

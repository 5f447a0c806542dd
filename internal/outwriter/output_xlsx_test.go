package outwriter

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/ingest"
	"github.com/huangsam/foothold/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func xlsxConfig(t *testing.T) *contract.Config {
	t.Helper()
	cfg := testConfig()
	cfg.Output = schema.XLSXOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.xlsx")
	return cfg
}

func TestWriteMatrixXLSXReadsBack(t *testing.T) {
	layout := testLayout(t)
	matrix := schema.NewNormalizedMatrix(layout, []string{"Kazan", "Omsk"}, map[string][]float64{
		"Kazan": {10, 10, 8.25, 7},
		"Omsk":  {0, math.NaN(), 0, 0},
	})
	cfg := xlsxConfig(t)
	require.NoError(t, WriteMatrixResults(matrix, cfg, time.Second))

	ds, _, err := ingest.NewLoader().Load(context.Background(), contract.Source{Path: cfg.OutputFile, Sheet: normalizedSheet})
	require.NoError(t, err)
	assert.Equal(t, layout, ds.Layout)
	assert.Equal(t, []string{"Kazan", "Omsk"}, ds.EntityNames())
	assert.Equal(t, []float64{10, 10, 8.25, 7}, ds.Entities[0].Raw)
	assert.True(t, math.IsNaN(ds.Entities[1].Raw[1]))
	assert.Equal(t, 0.0, ds.Entities[1].Raw[3])
}

func TestWriteRankResultsXLSX(t *testing.T) {
	cfg := xlsxConfig(t)
	cfg.Explain = true
	cfg.Audit = true
	require.NoError(t, WriteRankResults(testResult(t), cfg, time.Second))

	f, err := xlsx.OpenFile(cfg.OutputFile)
	require.NoError(t, err)
	sheet, ok := f.Sheet[rankingsSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)

	header := sheet.Rows[0].Cells
	assert.Equal(t, "rank", header[0].String())
	assert.Equal(t, "filled", header[len(header)-1].String())

	perm := sheet.Rows[2].Cells
	assert.Equal(t, "Perm", perm[1].String())
	assert.Equal(t, "2nd-order reference", perm[2].String())
	score, err := perm[4].Float()
	require.NoError(t, err)
	assert.Equal(t, 60.5, score)
	assert.Equal(t, "Clinics", perm[len(perm)-1].String())

	// The vectors sheet is a valid source in rank order
	ds, _, err := ingest.NewLoader().Load(context.Background(), contract.Source{Path: cfg.OutputFile, Sheet: vectorsSheet})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Perm", "Omsk"}, ds.EntityNames())
	assert.Equal(t, []float64{5, 6, 5, 6}, ds.Entities[1].Raw)
}

func TestWriteScoreResultsXLSX(t *testing.T) {
	cfg := xlsxConfig(t)
	result := testResult(t)
	require.NoError(t, WriteScoreResults(result.Scored, result.Layout, cfg, time.Second))

	f, err := xlsx.OpenFile(cfg.OutputFile)
	require.NoError(t, err)
	sheet, ok := f.Sheet[scoresSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)
	area, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 150.0, area)

	ds, _, err := ingest.NewLoader().Load(context.Background(), contract.Source{Path: cfg.OutputFile, Sheet: vectorsSheet})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Omsk", "Perm"}, ds.EntityNames())
}

func TestWriteXLSXRequiresFile(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.XLSXOut
	assert.Error(t, WriteRankResults(testResult(t), cfg, time.Second))
	assert.Error(t, WriteMatrixResults(schema.NewNormalizedMatrix(testLayout(t), nil, nil), cfg, time.Second))
}

func TestXLSXNumberFormat(t *testing.T) {
	assert.Equal(t, "0.0", xlsxNumberFormat(1))
	assert.Equal(t, "0.00", xlsxNumberFormat(2))
}

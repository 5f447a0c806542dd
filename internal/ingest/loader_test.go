package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string, order ...string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "cities.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoaderXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes": {{"ignore me"}},
		"Data": {
			{"City", "Turnout", "GDP"},
			{"", "Political", "Economic"},
			{"Kazan", "61", "900"},
			{"Omsk", "55", "400"},
		},
	}, "Notes", "Data")

	loader := NewLoader()
	ds, digest, err := loader.Load(context.Background(), contract.Source{Path: path, Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Omsk"}, ds.EntityNames())
	assert.Equal(t, []float64{61, 900}, ds.Entities[0].Raw)
	assert.Len(t, digest, 64)

	byIndex, _, err := loader.Load(context.Background(), contract.Source{Path: path, Sheet: "2"})
	require.NoError(t, err)
	assert.Equal(t, ds, byIndex)

	_, _, err = loader.Load(context.Background(), contract.Source{Path: path})
	assert.Error(t, err, "first sheet has no sphere row")

	_, _, err = loader.Load(context.Background(), contract.Source{Path: path, Sheet: "Missing"})
	assert.Error(t, err)
}

func TestLoaderXLSXFormattedNumbers(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Cities")
	require.NoError(t, err)
	for _, labels := range [][]string{
		{"City", "Population", "Turnout", "GDP", "Founded"},
		{"", "Social", "Political", "Economic", "Spiritual"},
	} {
		row := sheet.AddRow()
		for _, label := range labels {
			row.AddCell().SetString(label)
		}
	}
	row := sheet.AddRow()
	row.AddCell().SetString("Kazan")
	row.AddCell().SetFloatWithFormat(1234567, "#,##0")
	row.AddCell().SetFloatWithFormat(0.45, "0%")
	row.AddCell().SetFloatWithFormat(1234.5, "#,##0.00")
	row.AddCell().SetFloatWithFormat(45000, "dd/mm/yyyy")

	path := filepath.Join(t.TempDir(), "formatted.xlsx")
	require.NoError(t, f.Save(path))

	ds, _, err := NewLoader().Load(context.Background(), contract.Source{Path: path})
	require.NoError(t, err)
	require.Len(t, ds.Entities, 1)
	// Layout order is Political, Economic, Social, Spiritual
	assert.Equal(t, []float64{0.45, 1234.5, 1234567, 45000}, ds.Entities[0].Raw)
}

func TestLoaderCSV(t *testing.T) {
	path := writeFile(t, "cities.csv", "\ufeffCity,Turnout,Clinics\n,Political,Social\nKazan,61,40\nOmsk,55,\n")

	ds, digest, err := NewLoader().Load(context.Background(), contract.Source{Path: path, AnchorOrigin: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kazan", "Omsk", OriginEntity}, ds.EntityNames())

	_, plainDigest, err := NewLoader().Load(context.Background(), contract.Source{Path: path})
	require.NoError(t, err)
	assert.NotEqual(t, digest, plainDigest)

	fingerprint, err := NewLoader().Fingerprint(context.Background(), contract.Source{Path: path, AnchorOrigin: true})
	require.NoError(t, err)
	assert.Equal(t, digest, fingerprint)

	_, err = NewLoader().Fingerprint(context.Background(), contract.Source{Path: path + ".missing"})
	assert.Error(t, err)
}

func TestLoaderSemicolonCSV(t *testing.T) {
	path := writeFile(t, "cities.csv", "City;Turnout;GDP\n;Political;Economic\nKazan;61,5;1 200\n")

	ds, _, err := NewLoader().Load(context.Background(), contract.Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, []float64{61.5, 1200}, ds.Entities[0].Raw)
}

func TestLoaderTSV(t *testing.T) {
	path := writeFile(t, "cities.tsv", "City\tTurnout\n\tPolitical\nKazan\t61\n")

	ds, _, err := NewLoader().Load(context.Background(), contract.Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, []float64{61}, ds.Entities[0].Raw)
}

func TestLoaderErrors(t *testing.T) {
	ctx := context.Background()
	_, _, err := NewLoader().Load(ctx, contract.Source{Path: "/no/such/file.csv"})
	assert.Error(t, err)

	bad := writeFile(t, "cities.ods", "whatever")
	_, _, err = NewLoader().Load(ctx, contract.Source{Path: bad})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = NewLoader().Load(cancelled, contract.Source{Path: bad})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSheetOptions(t *testing.T) {
	assert.Equal(t, XLSXOptions{}, SheetOptions(""))
	assert.Equal(t, XLSXOptions{SheetIndex: 2}, SheetOptions("3"))
	assert.Equal(t, XLSXOptions{SheetName: "Cities"}, SheetOptions(" Cities "))
	assert.Equal(t, XLSXOptions{SheetName: "0"}, SheetOptions("0"))
}

func TestReadCSVRagged(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("a,b,c\n1\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1"}}, rows)
}

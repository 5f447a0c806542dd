package outwriter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names of exported workbooks. The vectors and normalized sheets use the
// ingestion layout and can be read back with --sheet.
const (
	normalizedSheet = "Normalized"
	rankingsSheet   = "Rankings"
	scoresSheet     = "Scores"
	vectorsSheet    = "Vectors"
)

// xlsxNumberFormat maps the configured precision to a cell display format.
// Cells always store the full value.
func xlsxNumberFormat(precision int) string {
	return "0." + strings.Repeat("0", max(precision, 1))
}

// writeXLSXFile checks the output path and writes the workbook built by fill.
func writeXLSXFile(cfg *contract.Config, fill func(*xlsx.File) error) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("xlsx output requires --output-file")
	}
	f := xlsx.NewFile()
	if err := fill(f); err != nil {
		return err
	}
	if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return f.Write(w)
	}, "Wrote XLSX"); err != nil {
		return fmt.Errorf("error writing XLSX output: %w", err)
	}
	return nil
}

// addLayoutSheet adds a sheet with the criterion header row and the sphere row.
func addLayoutSheet(f *xlsx.File, name string, layout schema.Layout) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, err
	}
	criteria := layout.Criteria()
	header, spheres := sheet.AddRow(), sheet.AddRow()
	header.AddCell().SetString("city")
	spheres.AddCell().SetString("sphere")
	for _, c := range criteria {
		header.AddCell().SetString(c.Name)
		spheres.AddCell().SetString(c.Sphere.String())
	}
	return sheet, nil
}

// addVectorRow appends one entity row; missing values stay blank.
func addVectorRow(sheet *xlsx.Sheet, entity string, vec []float64, numFmt string) {
	row := sheet.AddRow()
	row.AddCell().SetString(entity)
	for _, v := range vec {
		addFloatCell(row, v, numFmt)
	}
}

func addFloatCell(row *xlsx.Row, v float64, numFmt string) {
	cell := row.AddCell()
	if math.IsNaN(v) {
		return
	}
	cell.SetFloatWithFormat(v, numFmt)
}

func addStringRow(sheet *xlsx.Sheet, values ...string) *xlsx.Row {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
	return row
}

// writeMatrixXLSX writes the matrix in the same layout ingestion reads.
func writeMatrixXLSX(matrix schema.NormalizedMatrix, cfg *contract.Config) error {
	numFmt := xlsxNumberFormat(cfg.Precision)
	return writeXLSXFile(cfg, func(f *xlsx.File) error {
		sheet, err := addLayoutSheet(f, normalizedSheet, matrix.Layout)
		if err != nil {
			return err
		}
		for _, entity := range matrix.Entities {
			if vec, ok := matrix.Vector(entity); ok {
				addVectorRow(sheet, entity, vec, numFmt)
			}
		}
		return nil
	})
}

// writeRankingsXLSX writes the ranking table and, on a second sheet, the
// gap-filled vectors of the ranked cities in rank order.
func writeRankingsXLSX(result schema.RankResult, cfg *contract.Config) error {
	numFmt := xlsxNumberFormat(cfg.Precision)
	scored := result.ScoredByName()
	return writeXLSXFile(cfg, func(f *xlsx.File) error {
		sheet, err := f.AddSheet(rankingsSheet)
		if err != nil {
			return err
		}
		header := []string{"rank", "entity", "tier", "tier_order", "score"}
		if cfg.Explain {
			for _, key := range breakdownOrder {
				header = append(header, string(key))
			}
		}
		if cfg.Audit {
			header = append(header, "filled")
		}
		addStringRow(sheet, header...)

		for _, r := range schema.EnrichRankings(result.Rankings) {
			row := sheet.AddRow()
			row.AddCell().SetInt(r.Rank)
			row.AddCell().SetString(r.Name)
			row.AddCell().SetString(r.Label)
			row.AddCell().SetInt(int(r.Tier))
			addFloatCell(row, r.Score, numFmt)
			if cfg.Explain {
				for _, key := range breakdownOrder {
					v, ok := r.Breakdown[key]
					if !ok {
						v = math.NaN()
					}
					addFloatCell(row, v, numFmt)
				}
			}
			if cfg.Audit {
				row.AddCell().SetString(strings.Join(scored[r.Name].Filled, "|"))
			}
		}

		vectors, err := addLayoutSheet(f, vectorsSheet, result.Layout)
		if err != nil {
			return err
		}
		for _, r := range result.Rankings {
			if s, ok := scored[r.Name]; ok {
				addVectorRow(vectors, r.Name, s.Vector, numFmt)
			}
		}
		return nil
	})
}

// writeScoresXLSX writes areas with the filled audit and the gap-filled vectors.
func writeScoresXLSX(scored []schema.ScoredEntity, layout schema.Layout, cfg *contract.Config) error {
	numFmt := xlsxNumberFormat(cfg.Precision)
	return writeXLSXFile(cfg, func(f *xlsx.File) error {
		sheet, err := f.AddSheet(scoresSheet)
		if err != nil {
			return err
		}
		addStringRow(sheet, "entity", "area", "filled")
		for _, s := range scored {
			row := sheet.AddRow()
			row.AddCell().SetString(s.Name)
			addFloatCell(row, s.Area, numFmt)
			row.AddCell().SetString(strings.Join(s.Filled, "|"))
		}

		vectors, err := addLayoutSheet(f, vectorsSheet, layout)
		if err != nil {
			return err
		}
		for _, s := range scored {
			addVectorRow(vectors, s.Name, s.Vector, numFmt)
		}
		return nil
	})
}

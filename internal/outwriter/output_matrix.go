package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/parquet"
	"github.com/huangsam/foothold/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteMatrixResults outputs a normalized matrix, dispatching based on the output format configured.
func WriteMatrixResults(matrix schema.NormalizedMatrix, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, matrix)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixCSV(w, matrix, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file")
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteMatrixCells(w, parquet.ConvertMatrix(matrix))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.XLSXOut:
		return writeMatrixXLSX(matrix, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixTables(w, matrix, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeMatrixCSV mirrors the input layout: criterion names, then sphere labels,
// then one row per entity. The result can be fed back into ingestion.
func writeMatrixCSV(w io.Writer, matrix schema.NormalizedMatrix, fmtFloat func(float64) string) error {
	criteria := matrix.Layout.Criteria()
	header := make([]string, 0, len(criteria)+1)
	spheres := make([]string, 0, len(criteria)+1)
	header = append(header, "city")
	spheres = append(spheres, "sphere")
	for _, c := range criteria {
		header = append(header, c.Name)
		spheres = append(spheres, c.Sphere.String())
	}

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		if err := cw.Write(spheres); err != nil {
			return err
		}
		for _, entity := range matrix.Entities {
			vec, ok := matrix.Vector(entity)
			if !ok {
				continue
			}
			rec := make([]string, 0, len(vec)+1)
			rec = append(rec, entity)
			for _, v := range vec {
				rec = append(rec, fmtFloat(v))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeMatrixTables writes one table per sphere so wide datasets stay readable.
func writeMatrixTables(writer io.Writer, matrix schema.NormalizedMatrix, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	nameWidth := getMaxTableNameWidth(cfg)

	for gi, sc := range matrix.Layout.Spheres {
		if _, err := fmt.Fprintf(writer, "%s sphere\n", sc.Sphere); err != nil {
			return err
		}

		table := tablewriter.NewWriter(writer)
		table.Header(append([]string{"City"}, sc.Criteria...))
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		var data [][]string
		for _, entity := range matrix.Entities {
			groups, ok := matrix.Grouped(entity)
			if !ok {
				continue
			}
			row := []string{contract.TruncateName(entity, nameWidth)}
			for _, cv := range groups[gi].Values {
				if s := fmtFloat(cv.Value); s != missingCell {
					row = append(row, s)
				} else {
					row = append(row, "-")
				}
			}
			data = append(data, row)
		}

		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(writer, "Normalized %d cities on %d criteria in %v. Cache backend: %s\n", len(matrix.Entities), matrix.Layout.Len(), duration, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

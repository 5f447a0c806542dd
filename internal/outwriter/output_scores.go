package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/parquet"
	"github.com/huangsam/foothold/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteScoreResults outputs scored entities, dispatching based on the output format configured.
func WriteScoreResults(scored []schema.ScoredEntity, layout schema.Layout, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresJSON(w, scored, layout)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresCSV(w, scored, layout, cfg, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file")
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteScoreRows(w, parquet.ConvertScores(scored))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.XLSXOut:
		return writeScoresXLSX(scored, layout, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresTable(w, scored, layout, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// jsonScore is one scored entity in JSON output; null marks a value gap filling
// could not reconstruct.
type jsonScore struct {
	Entity string     `json:"entity"`
	Area   float64    `json:"area"`
	Vector []*float64 `json:"vector"`
	Filled []string   `json:"filled"`
}

func writeScoresJSON(w io.Writer, scored []schema.ScoredEntity, layout schema.Layout) error {
	output := struct {
		Criteria []string    `json:"criteria"`
		Scores   []jsonScore `json:"scores"`
	}{
		Criteria: layout.Flatten(),
		Scores:   make([]jsonScore, len(scored)),
	}
	for i, s := range scored {
		filled := s.Filled
		if filled == nil {
			filled = []string{}
		}
		output.Scores[i] = jsonScore{Entity: s.Name, Area: s.Area, Vector: schema.ToNullable(s.Vector), Filled: filled}
	}
	return writeJSON(w, output)
}

func writeScoresCSV(w io.Writer, scored []schema.ScoredEntity, layout schema.Layout, cfg *contract.Config, fmtFloat func(float64) string) error {
	criteria := layout.Flatten()
	header := []string{"entity", "area", "filled"}
	if cfg.Detail {
		header = append(header, criteria...)
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range scored {
			rec := []string{s.Name, fmtFloat(s.Area), strings.Join(s.Filled, "|")}
			if cfg.Detail {
				for j := range criteria {
					if j < len(s.Vector) {
						rec = append(rec, fmtFloat(s.Vector[j]))
					} else {
						rec = append(rec, missingCell)
					}
				}
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeScoresTable(writer io.Writer, scored []schema.ScoredEntity, layout schema.Layout, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"City", "Area", "Filled"}
	if cfg.Detail {
		headers = append(headers, "Vector")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableNameWidth(cfg)
	filledTotal := 0
	var data [][]string
	for _, s := range scored {
		row := []string{
			contract.TruncateName(s.Name, nameWidth),
			fmtFloat(s.Area),
			formatFilled(s.Filled),
		}
		if cfg.Detail {
			row = append(row, formatVector(s.Vector, fmtFloat))
		}
		filledTotal += len(s.Filled)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Scored %d cities on %d criteria (%d values reconstructed)\n", len(scored), layout.Len(), filledTotal); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Scoring completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

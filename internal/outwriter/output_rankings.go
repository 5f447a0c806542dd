package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/parquet"
	"github.com/huangsam/foothold/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// breakdownOrder is the display order of ranking factors. Keys a variant
// does not produce are skipped.
var breakdownOrder = []schema.BreakdownKey{
	schema.BreakdownArea,
	schema.BreakdownSum,
	schema.BreakdownAboveAvg,
	schema.BreakdownDeficit,
	schema.BreakdownDeficitRk,
	schema.BreakdownAreaRk,
	schema.BreakdownBlend,
}

// WriteRankResults outputs a ranking, dispatching based on the output format configured.
func WriteRankResults(result schema.RankResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingsJSON(w, result, cfg)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingsCSV(w, result, cfg, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file")
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRankingRows(w, parquet.ConvertRankings(schema.EnrichRankings(result.Rankings)))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.XLSXOut:
		return writeRankingsXLSX(result, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingsTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// jsonRanking is one ranking line in JSON output.
type jsonRanking struct {
	schema.EnrichedRanking
	Vector []*float64 `json:"vector,omitempty"`
	Filled []string   `json:"filled,omitempty"`
}

// jsonRankResult is the JSON document of a ranking.
type jsonRankResult struct {
	Variant  schema.RankVariant `json:"variant"`
	Source   string             `json:"source"`
	RunID    int64              `json:"run_id,omitempty"`
	Criteria []string           `json:"criteria"`
	Rankings []jsonRanking      `json:"rankings"`
}

// writeRankingsJSON writes the ranking with rank and label added.
func writeRankingsJSON(w io.Writer, result schema.RankResult, cfg *contract.Config) error {
	scored := result.ScoredByName()
	enriched := schema.EnrichRankings(result.Rankings)
	output := jsonRankResult{
		Variant:  result.Variant,
		Source:   result.Source,
		RunID:    result.RunID,
		Criteria: result.Layout.Flatten(),
		Rankings: make([]jsonRanking, len(enriched)),
	}
	for i, r := range enriched {
		line := jsonRanking{EnrichedRanking: r}
		if s, ok := scored[r.Name]; ok {
			if cfg.Detail {
				line.Vector = schema.ToNullable(s.Vector)
			}
			if cfg.Audit {
				line.Filled = s.Filled
			}
		}
		output.Rankings[i] = line
	}
	return writeJSON(w, output)
}

// writeRankingsCSV writes one line per entity. Optional column groups follow
// the fixed columns in the order explain, detail, audit.
func writeRankingsCSV(w io.Writer, result schema.RankResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	criteria := result.Layout.Flatten()
	header := []string{"rank", "entity", "tier", "tier_order", "score"}
	if cfg.Explain {
		for _, key := range breakdownOrder {
			header = append(header, string(key))
		}
	}
	if cfg.Detail {
		header = append(header, criteria...)
	}
	if cfg.Audit {
		header = append(header, "filled")
	}

	scored := result.ScoredByName()
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range result.Rankings {
			rec := []string{
				strconv.Itoa(i + 1),
				r.Name,
				contract.GetPlainLabel(r.Tier),
				strconv.Itoa(int(r.Tier)),
				fmtFloat(r.Score),
			}
			if cfg.Explain {
				for _, key := range breakdownOrder {
					v, ok := r.Breakdown[key]
					if !ok {
						rec = append(rec, missingCell)
						continue
					}
					rec = append(rec, fmtFloat(v))
				}
			}
			s := scored[r.Name]
			if cfg.Detail {
				for j := range criteria {
					if j < len(s.Vector) {
						rec = append(rec, fmtFloat(s.Vector[j]))
					} else {
						rec = append(rec, missingCell)
					}
				}
			}
			if cfg.Audit {
				rec = append(rec, strings.Join(s.Filled, "|"))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRankingsTable generates and writes the human-readable table.
func writeRankingsTable(writer io.Writer, result schema.RankResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Rank", "City", "Tier", "Score"}
	if cfg.Explain {
		headers = append(headers, "Explain")
	}
	if cfg.Detail {
		headers = append(headers, "Vector")
	}
	if cfg.Audit {
		headers = append(headers, "Filled")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxTableNameWidth(cfg)
	scored := result.ScoredByName()
	var data [][]string
	for i, r := range result.Rankings {
		label := contract.GetPlainLabel(r.Tier)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Tier)
		}
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateName(r.Name, nameWidth),
			label,
			fmtFloat(r.Score),
		}
		if cfg.Explain {
			row = append(row, formatBreakdown(r.Breakdown, fmtFloat))
		}
		s := scored[r.Name]
		if cfg.Detail {
			row = append(row, formatVector(s.Vector, fmtFloat))
		}
		if cfg.Audit {
			row = append(row, formatFilled(s.Filled))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(writer, "Ranked %d cities on %d criteria with variant %s\n", len(result.Rankings), result.Layout.Len(), result.Variant); err != nil {
		return err
	}
	if result.RunID > 0 {
		if _, err := fmt.Fprintf(writer, "Recorded as run %d\n", result.RunID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Ranking completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// formatBreakdown renders the ranking factors as "key=value" pairs.
func formatBreakdown(b map[schema.BreakdownKey]float64, fmtFloat func(float64) string) string {
	parts := make([]string, 0, len(b))
	for _, key := range breakdownOrder {
		if v, ok := b[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", key, fmtFloat(v)))
		}
	}
	return strings.Join(parts, " ")
}

// formatVector renders a vector with "-" for missing values.
func formatVector(vec []float64, fmtFloat func(float64) string) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		if s := fmtFloat(v); s != missingCell {
			parts[i] = s
		} else {
			parts[i] = "-"
		}
	}
	return strings.Join(parts, " ")
}

func formatFilled(filled []string) string {
	if len(filled) == 0 {
		return "-"
	}
	return strings.Join(filled, ", ")
}

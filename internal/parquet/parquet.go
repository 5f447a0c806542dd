// Package parquet provides data structures and functions for exporting foothold
// rankings and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/huangsam/foothold/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single ranking run with metadata.
// This struct maps to the foothold_runs database table.
type Run struct {
	// RunID is the store-local identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunKey is the globally unique identifier for this run
	RunKey string `parquet:"run_key,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// Variant is the ranking variant that was applied
	Variant string `parquet:"variant,snappy,dict"`

	// Source is the path of the ranked dataset
	Source string `parquet:"source,snappy,dict"`

	// EntityCount is the number of ranked entities (nullable)
	EntityCount *int32 `parquet:"entity_count,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Ranking represents the recorded result of one entity in a run.
// This struct maps to the foothold_rankings database table.
type Ranking struct {
	RunID      int64     `parquet:"run_id,snappy"`
	Entity     string    `parquet:"entity,snappy"`
	Tier       string    `parquet:"tier,snappy,dict"`
	TierOrder  int32     `parquet:"tier_order,snappy"`
	Score      float64   `parquet:"score,snappy"`
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// RankingRow is a ranking line written by the parquet output mode.
type RankingRow struct {
	Rank      int32    `parquet:"rank,snappy"`
	Entity    string   `parquet:"entity,snappy"`
	Tier      string   `parquet:"tier,snappy,dict"`
	TierOrder int32    `parquet:"tier_order,snappy"`
	Score     float64  `parquet:"score,snappy"`
	Area      *float64 `parquet:"area,optional,snappy"`
	Sum       *float64 `parquet:"sum,optional,snappy"`
	Blend     *float64 `parquet:"blend,optional,snappy"`
}

// ScoreRow is a scored entity written by the parquet output mode.
type ScoreRow struct {
	Entity string   `parquet:"entity,snappy"`
	Area   float64  `parquet:"area,snappy"`
	Filled []string `parquet:"filled,list"`
}

// MatrixCell is one normalized value in long format; Value is null when missing.
type MatrixCell struct {
	Entity    string   `parquet:"entity,snappy,dict"`
	Sphere    string   `parquet:"sphere,snappy,dict"`
	Criterion string   `parquet:"criterion,snappy,dict"`
	Value     *float64 `parquet:"value,optional,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteRankingsParquet writes a slice of Ranking structs to a Parquet file.
func WriteRankingsParquet(data []Ranking, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteRankingRows writes ranking lines to w.
func WriteRankingRows(w io.Writer, data []RankingRow) error {
	return write(w, data)
}

// WriteScoreRows writes scored entities to w.
func WriteScoreRows(w io.Writer, data []ScoreRow) error {
	return write(w, data)
}

// WriteMatrixCells writes normalized values to w.
func WriteMatrixCells(w io.Writer, data []MatrixCell) error {
	return write(w, data)
}

// writeFile creates outputPath and writes the rows into it.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// write uses struct schema inference; the schema is derived from the struct tags of T.
func write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunKey:        record.RunKey,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDuration,
			Variant:       record.Variant,
			Source:        record.Source,
			EntityCount:   record.EntityCount,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRankingRecords converts schema.RankingRecord to Ranking for Parquet export.
func ConvertRankingRecords(records []schema.RankingRecord) []Ranking {
	result := make([]Ranking, len(records))
	for i, record := range records {
		result[i] = Ranking(record)
	}
	return result
}

// ConvertRankings flattens a ranking result into parquet rows. Breakdown values
// that a variant does not produce stay null.
func ConvertRankings(ranked []schema.EnrichedRanking) []RankingRow {
	result := make([]RankingRow, len(ranked))
	for i, r := range ranked {
		result[i] = RankingRow{
			Rank:      int32(r.Rank),
			Entity:    r.Name,
			Tier:      r.Label,
			TierOrder: int32(r.Tier),
			Score:     r.Score,
			Area:      breakdownValue(r.Breakdown, schema.BreakdownArea),
			Sum:       breakdownValue(r.Breakdown, schema.BreakdownSum),
			Blend:     breakdownValue(r.Breakdown, schema.BreakdownBlend),
		}
	}
	return result
}

// ConvertScores converts scored entities into parquet rows.
func ConvertScores(scored []schema.ScoredEntity) []ScoreRow {
	result := make([]ScoreRow, len(scored))
	for i, s := range scored {
		result[i] = ScoreRow{Entity: s.Name, Area: s.Area, Filled: s.Filled}
	}
	return result
}

// ConvertMatrix flattens a normalized matrix entity-major in layout order.
func ConvertMatrix(m schema.NormalizedMatrix) []MatrixCell {
	result := make([]MatrixCell, 0, len(m.Entities)*m.Layout.Len())
	for _, entity := range m.Entities {
		groups, ok := m.Grouped(entity)
		if !ok {
			continue
		}
		for _, g := range groups {
			for _, cv := range g.Values {
				cell := MatrixCell{Entity: entity, Sphere: g.Sphere.String(), Criterion: cv.Criterion}
				if !math.IsNaN(cv.Value) {
					v := cv.Value
					cell.Value = &v
				}
				result = append(result, cell)
			}
		}
	}
	return result
}

func breakdownValue(b map[schema.BreakdownKey]float64, key schema.BreakdownKey) *float64 {
	v, ok := b[key]
	if !ok {
		return nil
	}
	return &v
}

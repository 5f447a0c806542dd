package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/parquet"
)

// ExecuteRunExport writes the run history of store to Parquet files derived from outputFile.
func ExecuteRunExport(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled. Set --run-backend to export run history")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total ranking records: %d\n", status.TableSizes[rankingsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	rankings, err := store.GetAllRankings()
	if err != nil {
		return fmt.Errorf("failed to retrieve rankings: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	rankingsFile := outputFile + ".rankings.parquet"
	if err := parquet.WriteRankingsParquet(parquet.ConvertRankingRecords(rankings), rankingsFile); err != nil {
		return fmt.Errorf("failed to write rankings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d ranking records to: %s\n", len(rankings), rankingsFile)
	return nil
}

// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

var _ contract.ResultWriter = (*OutWriter)(nil)

// WriteRankings prints a ranking result using the configured output format.
func (ow *OutWriter) WriteRankings(result schema.RankResult, cfg *contract.Config, duration time.Duration) error {
	return WriteRankResults(result, cfg, duration)
}

// WriteMatrix prints a normalized matrix using the configured output format.
func (ow *OutWriter) WriteMatrix(matrix schema.NormalizedMatrix, cfg *contract.Config, duration time.Duration) error {
	return WriteMatrixResults(matrix, cfg, duration)
}

// WriteScores prints scored entities using the configured output format.
func (ow *OutWriter) WriteScores(scored []schema.ScoredEntity, layout schema.Layout, cfg *contract.Config, duration time.Duration) error {
	return WriteScoreResults(scored, layout, cfg, duration)
}

// WriteChart writes an encoded chart document. Charts ignore the output mode.
func (ow *OutWriter) WriteChart(doc []byte, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		if _, err := w.Write(doc); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		return nil
	}, "Wrote GeoJSON")
}

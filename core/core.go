// Package core has core logic for loading, scoring and ranking cities.
package core

import (
	"context"
	"time"

	"github.com/huangsam/foothold/core/algo"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/internal/ingest"
	"github.com/huangsam/foothold/internal/outwriter"
	"github.com/huangsam/foothold/internal/radar"
	"github.com/huangsam/foothold/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteRank ranks the selected cities and prints the result.
// It serves as the main entry point for the 'rank' command.
func ExecuteRank(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := RankSelection(ctx, cfg, ingest.NewLoader(), mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteRankings(result, cfg, duration)
}

// ExecuteNormalize prints the normalized matrix, restricted to the selection when one is given.
// Normalization always spans every city in the source.
func ExecuteNormalize(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	matrix, err := NormalizeSelection(ctx, cfg, ingest.NewLoader(), mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteMatrix(matrix, cfg, duration)
}

// ExecuteScore prints the gap-filled vectors and areas of the selected cities.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	matrix, err := LoadMatrix(ctx, cfg, ingest.NewLoader(), mgr)
	if err != nil {
		return err
	}
	scored, err := scoreMatrix(ctx, cfg, matrix)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteScores(scored, matrix.Layout, cfg, duration)
}

// ExecuteChart writes radar chart geometry as GeoJSON. Selections large enough to
// rank carry their tiers; charts are never recorded as runs.
func ExecuteChart(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	matrix, err := LoadMatrix(ctx, cfg, ingest.NewLoader(), mgr)
	if err != nil {
		return err
	}
	doc, err := BuildChart(ctx, cfg, matrix)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteChart(doc, cfg)
}

// BuildChart scores the selection of matrix and encodes its radar chart.
func BuildChart(ctx context.Context, cfg *contract.Config, matrix schema.NormalizedMatrix) ([]byte, error) {
	names, err := resolveSelection(matrix, cfg.Entities)
	if err != nil {
		return nil, err
	}

	var (
		scored   []schema.ScoredEntity
		rankings []schema.RankedEntity
	)
	if len(names) >= algo.MinSelection {
		result, err := rankMatrix(ctx, cfg, matrix)
		if err != nil {
			return nil, err
		}
		scored, rankings = result.Scored, result.Rankings
	} else if scored, err = ScoreEntities(ctx, matrix, names, cfg.Workers); err != nil {
		return nil, err
	}

	fc, err := radar.Build(matrix.Layout, scored, rankings, cfg.Layout)
	if err != nil {
		return nil, err
	}
	return radar.Encode(fc)
}

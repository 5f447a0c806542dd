package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/foothold/core/algo"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
	"go.uber.org/zap"
)

// LoadMatrix ingests the configured source and returns its normalized matrix,
// going through the matrix cache when the manager provides one.
func LoadMatrix(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, mgr contract.CacheManager) (schema.NormalizedMatrix, error) {
	if cfg.SourcePath == "" {
		return schema.NormalizedMatrix{}, fmt.Errorf("no source file given")
	}
	return cachedNormalize(ctx, cfg, loader, mgr)
}

// NormalizeSelection returns the normalized matrix restricted to the configured
// selection. Min and max are always taken over the whole source.
func NormalizeSelection(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, mgr contract.CacheManager) (schema.NormalizedMatrix, error) {
	matrix, err := LoadMatrix(ctx, cfg, loader, mgr)
	if err != nil {
		return schema.NormalizedMatrix{}, err
	}
	if len(cfg.Entities) == 0 {
		return matrix, nil
	}
	names, err := resolveSelection(matrix, cfg.Entities)
	if err != nil {
		return schema.NormalizedMatrix{}, err
	}
	return subMatrix(matrix, names), nil
}

// ScoreSelection gap-fills and scores the configured selection. Unlike ranking it
// accepts any number of cities.
func ScoreSelection(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, mgr contract.CacheManager) ([]schema.ScoredEntity, error) {
	matrix, err := LoadMatrix(ctx, cfg, loader, mgr)
	if err != nil {
		return nil, err
	}
	return scoreMatrix(ctx, cfg, matrix)
}

func scoreMatrix(ctx context.Context, cfg *contract.Config, matrix schema.NormalizedMatrix) ([]schema.ScoredEntity, error) {
	names, err := resolveSelection(matrix, cfg.Entities)
	if err != nil {
		return nil, err
	}
	return ScoreEntities(ctx, matrix, names, cfg.Workers)
}

// RankSelection scores and ranks the configured selection, then records the run
// when run tracking is enabled. An empty selection ranks every city.
func RankSelection(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, mgr contract.CacheManager) (schema.RankResult, error) {
	start := time.Now()
	matrix, err := LoadMatrix(ctx, cfg, loader, mgr)
	if err != nil {
		return schema.RankResult{}, err
	}

	result, err := rankMatrix(ctx, cfg, matrix)
	if err != nil {
		return schema.RankResult{}, err
	}

	result.RunID = recordRun(cfg, mgr, start, result.Rankings)
	return result, nil
}

// rankMatrix runs selection, scoring and ranking over an already loaded matrix.
func rankMatrix(ctx context.Context, cfg *contract.Config, matrix schema.NormalizedMatrix) (schema.RankResult, error) {
	names, err := resolveSelection(matrix, cfg.Entities)
	if err != nil {
		return schema.RankResult{}, err
	}
	if len(names) < algo.MinSelection {
		return schema.RankResult{}, &algo.InsufficientSelectionError{Count: len(names), Min: algo.MinSelection}
	}

	scored, err := ScoreEntities(ctx, matrix, names, cfg.Workers)
	if err != nil {
		return schema.RankResult{}, err
	}

	ranked, err := algo.Rank(cfg.Variant, scored)
	if err != nil {
		return schema.RankResult{}, err
	}
	zap.L().Debug("selection ranked",
		zap.String("variant", string(cfg.Variant)),
		zap.Int("entities", len(ranked)))

	return schema.RankResult{
		Variant:  cfg.Variant,
		Source:   cfg.SourcePath,
		Layout:   matrix.Layout,
		Rankings: ranked,
		Scored:   scored,
	}, nil
}

// recordRun stores the ranking in the run store and returns its ID, or 0 when
// tracking is disabled or fails. Tracking errors never fail the request.
func recordRun(cfg *contract.Config, mgr contract.CacheManager, start time.Time, ranked []schema.RankedEntity) int64 {
	if mgr == nil {
		return 0
	}
	runStore := mgr.GetRunStore()
	if runStore == nil {
		return 0
	}

	configParams := map[string]any{
		"variant":       string(cfg.Variant),
		"cities":        cfg.Entities,
		"sheet":         cfg.Sheet,
		"anchor_origin": cfg.AnchorOrigin,
		"workers":       cfg.Workers,
	}
	runID, err := runStore.BeginRun(start, cfg.Variant, cfg.SourcePath, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	if runID <= 0 {
		return 0
	}

	for _, r := range ranked {
		if err := runStore.RecordRanking(runID, r); err != nil {
			logTrackingError("RecordRanking", r.Name, err)
		}
	}
	if err := runStore.EndRun(runID, time.Now(), len(ranked)); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
	return runID
}

// logTrackingError logs database tracking errors to stderr without disrupting ranking.
func logTrackingError(operation, entity string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on %s", operation, entity), err)
}

package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/foothold/core/algo"
	"github.com/huangsam/foothold/internal/contract"
	"github.com/huangsam/foothold/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheMaxAge bounds how long a cached matrix is trusted.
const cacheMaxAge = 7 * 24 * time.Hour

// cachedNormalize returns the normalized matrix of the configured source, reading
// and filling the matrix store when one is configured.
func cachedNormalize(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, mgr contract.CacheManager) (schema.NormalizedMatrix, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetMatrixStore()
	}
	if store == nil {
		// Fallback to direct computation
		return normalizeSource(ctx, cfg, loader)
	}

	fingerprint, err := loader.Fingerprint(ctx, cfg.Source())
	if err != nil {
		return schema.NormalizedMatrix{}, err
	}
	key := generateCacheKey(fingerprint)

	if result, ok := checkCacheHit(store, key); ok {
		zap.L().Debug("matrix cache hit", zap.String("source", cfg.SourcePath))
		return result, nil
	}

	return computeAndStore(ctx, cfg, loader, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached matrix
func checkCacheHit(store contract.CacheStore, key string) (schema.NormalizedMatrix, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return schema.NormalizedMatrix{}, false // Cache miss
	}

	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return schema.NormalizedMatrix{}, false // Stale or version mismatch
	}

	var result schema.NormalizedMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		zap.L().Debug("discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return schema.NormalizedMatrix{}, false
	}
	return result, true
}

// computeAndStore computes the matrix and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader, store contract.CacheStore, key string) (schema.NormalizedMatrix, error) {
	result, err := normalizeSource(ctx, cfg, loader)
	if err != nil {
		return schema.NormalizedMatrix{}, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache normalized matrix", err)
		}
	}

	return result, nil
}

// generateCacheKey creates a unique key from the source fingerprint
func generateCacheKey(fingerprint string) string {
	key := fmt.Sprintf("matrix:%s:v%d", fingerprint, currentCacheVersion)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// normalizeSource loads the dataset and normalizes it, logging every anomaly.
func normalizeSource(ctx context.Context, cfg *contract.Config, loader contract.DatasetLoader) (schema.NormalizedMatrix, error) {
	ds, _, err := loader.Load(ctx, cfg.Source())
	if err != nil {
		return schema.NormalizedMatrix{}, err
	}
	matrix, anomalies := algo.Normalize(ds)
	logAnomalies(anomalies)
	return matrix, nil
}

// logAnomalies reports non-fatal normalization and scoring findings at warn level.
func logAnomalies(anomalies []error) {
	for _, err := range anomalies {
		var (
			missing    *algo.MissingCriterionError
			degenerate *algo.DegenerateNormalizationWarning
			invalid    *algo.InvalidScoreInputError
		)
		switch {
		case errors.As(err, &missing):
			zap.L().Warn("criterion has no values", zap.String("criterion", missing.Criterion))
		case errors.As(err, &degenerate):
			zap.L().Warn("criterion is constant", zap.String("criterion", degenerate.Criterion), zap.Float64("value", degenerate.Value))
		case errors.As(err, &invalid):
			zap.L().Warn("entity scored with zero area", zap.String("entity", invalid.Entity), zap.Int("finite", invalid.Finite))
		default:
			zap.L().Warn("anomaly", zap.Error(err))
		}
	}
}

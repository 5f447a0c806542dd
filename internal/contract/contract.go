// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/foothold/schema"
)

// DatasetLoader reads a tabular source into a Dataset.
// This allows the pipeline to be tested without real spreadsheet files.
type DatasetLoader interface {
	// Load parses the source and returns the dataset together with a digest of
	// everything that influenced it, suitable as a cache key.
	Load(ctx context.Context, src Source) (schema.Dataset, string, error)

	// Fingerprint returns the digest of src without parsing it.
	Fingerprint(ctx context.Context, src Source) (string, error)
}

// Source identifies a tabular input and how to read it.
type Source struct {
	Path         string
	Sheet        string // Sheet name or 1-based index for workbooks; empty means the first sheet
	AnchorOrigin bool   // Append the all-zero origin entity
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetMatrixStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking ranking runs and their results.
type RunStore interface {
	// BeginRun creates a new ranking run and returns its unique ID
	BeginRun(startTime time.Time, variant schema.RankVariant, source string, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalEntities int) error

	// RecordRanking stores the tier and score of one entity
	RecordRanking(runID int64, ranked schema.RankedEntity) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRankings retrieves every recorded entity result ordered by run and tier
	GetAllRankings() ([]schema.RankingRecord, error)

	// Close closes the underlying connection
	Close() error
}

// ResultWriter renders pipeline results in the configured output format.
type ResultWriter interface {
	WriteRankings(result schema.RankResult, cfg *Config, duration time.Duration) error
	WriteMatrix(matrix schema.NormalizedMatrix, cfg *Config, duration time.Duration) error
	WriteScores(scored []schema.ScoredEntity, layout schema.Layout, cfg *Config, duration time.Duration) error
	WriteChart(doc []byte, cfg *Config) error
}

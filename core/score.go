package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/foothold/core/algo"
	"github.com/huangsam/foothold/internal/ingest"
	"github.com/huangsam/foothold/schema"
	"golang.org/x/sync/errgroup"
)

// ScoreEntities gap-fills and scores the named entities using up to workers
// goroutines. Results keep the order of names. Entities too sparse to enclose an
// area are scored 0 and logged.
func ScoreEntities(ctx context.Context, matrix schema.NormalizedMatrix, names []string, workers int) ([]schema.ScoredEntity, error) {
	criteria := matrix.Layout.Flatten()
	results := make([]schema.ScoredEntity, len(names))
	anomalies := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, ok := matrix.Vector(name)
			if !ok {
				return fmt.Errorf("unknown city %q", name)
			}
			// Each goroutine writes to its own index
			results[i], anomalies[i] = algo.ScoreEntity(name, vec, criteria)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logAnomalies(slices.DeleteFunc(anomalies, func(err error) bool { return err == nil }))
	return results, nil
}

// resolveSelection returns the requested entities sorted by name. An empty request
// selects every entity except the synthetic origin anchor.
func resolveSelection(matrix schema.NormalizedMatrix, requested []string) ([]string, error) {
	var names []string
	if len(requested) == 0 {
		for _, e := range matrix.Entities {
			if e != ingest.OriginEntity {
				names = append(names, e)
			}
		}
	} else {
		var unknown []string
		for _, e := range requested {
			if !matrix.Has(e) {
				unknown = append(unknown, e)
				continue
			}
			names = append(names, e)
		}
		if len(unknown) > 0 {
			return nil, fmt.Errorf("unknown cities: %s", strings.Join(unknown, ", "))
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// subMatrix restricts a matrix to the given entities.
func subMatrix(matrix schema.NormalizedMatrix, names []string) schema.NormalizedMatrix {
	values := make(map[string][]float64, len(names))
	for _, name := range names {
		if vec, ok := matrix.Vector(name); ok {
			values[name] = vec
		}
	}
	return schema.NewNormalizedMatrix(matrix.Layout, names, values)
}

package algo

import "fmt"

// MinSelection is the smallest number of entities a ranking request accepts.
const MinSelection = 3

// MinFiniteValues is the smallest number of finite radii that enclose an area.
const MinFiniteValues = 3

// MissingCriterionError reports a criterion with no values for any entity.
// It is an anomaly, not a failure: the criterion stays missing everywhere.
type MissingCriterionError struct {
	Criterion string
}

func (e *MissingCriterionError) Error() string {
	return fmt.Sprintf("criterion %q has no values for any entity", e.Criterion)
}

// DegenerateNormalizationWarning reports a criterion whose present values are all equal.
// Every present value of such a criterion normalizes to 0.
type DegenerateNormalizationWarning struct {
	Criterion string
	Value     float64
}

func (e *DegenerateNormalizationWarning) Error() string {
	return fmt.Sprintf("criterion %q is constant at %g, normalized to 0", e.Criterion, e.Value)
}

// InsufficientSelectionError aborts a ranking request with too few entities.
type InsufficientSelectionError struct {
	Count int
	Min   int
}

func (e *InsufficientSelectionError) Error() string {
	return fmt.Sprintf("ranking needs at least %d entities, got %d", e.Min, e.Count)
}

// InvalidScoreInputError reports a vector too sparse to enclose an area.
// The entity still takes part in ranking with an area of 0.
type InvalidScoreInputError struct {
	Entity string
	Finite int
}

func (e *InvalidScoreInputError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("need at least %d finite values to score, got %d", MinFiniteValues, e.Finite)
	}
	return fmt.Sprintf("entity %q: need at least %d finite values to score, got %d", e.Entity, MinFiniteValues, e.Finite)
}

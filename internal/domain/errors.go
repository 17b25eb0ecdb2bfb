package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRecord is returned for stock records the pipeline refuses to score
	ErrInvalidRecord = errors.New("invalid record")
	// ErrDuplicateItem is returned when an item code appears twice in the stock snapshot
	ErrDuplicateItem = fmt.Errorf("%w: duplicate item code", ErrInvalidRecord)
	// ErrInvalidWeights is returned for weight sets that cannot produce a bounded score
	ErrInvalidWeights = errors.New("invalid score weights")
	// ErrDatasetNotLoaded is returned when a report is requested before any snapshot was loaded
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
)

// RecordError describes which field of which record was rejected
type RecordError struct {
	ItemCode string
	Field    string
	Value    float64
	Err      error
}

func (e *RecordError) Error() string {
	if errors.Is(e.Err, ErrDuplicateItem) {
		return fmt.Sprintf("item %q: %v", e.ItemCode, e.Err)
	}
	return fmt.Sprintf("item %q: %s=%v: %v", e.ItemCode, e.Field, e.Value, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Validate checks that every weight is finite and non-negative and that at least one is positive
func (w Weights) Validate() error {
	values := map[string]float64{"demand": w.Demand, "price": w.Price, "risk": w.Risk}
	for _, name := range []string{"demand", "price", "risk"} {
		v := values[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s weight is not finite", ErrInvalidWeights, name)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%v)", ErrInvalidWeights, name, v)
		}
	}
	if w.Demand+w.Price+w.Risk == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	}
	return nil
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.Demand + w.Price + w.Risk
}

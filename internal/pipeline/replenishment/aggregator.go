package replenishment

import (
	"fmt"
	"math"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// DemandAggregator reduces a sales log to per-item demand statistics
type DemandAggregator struct{}

// NewDemandAggregator creates a new demand aggregator
func NewDemandAggregator() *DemandAggregator {
	return &DemandAggregator{}
}

// Aggregate groups sales by item code and computes the mean and the sample
// standard deviation (n-1) of quantity sold. Groups with a single sale are
// returned with VarianceDefined=false.
func (a *DemandAggregator) Aggregate(sales []domain.SaleEvent) map[string]domain.DemandStats {
	groups := make(map[string][]float64)
	for _, s := range sales {
		groups[s.ItemCode] = append(groups[s.ItemCode], s.QuantitySold)
	}

	stats := make(map[string]domain.DemandStats, len(groups))
	for code, qty := range groups {
		stats[code] = summarize(code, qty)
	}
	return stats
}

// validateSales rejects negative and non-finite quantities sold
func validateSales(sales []domain.SaleEvent) error {
	for _, s := range sales {
		q := s.QuantitySold
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return &domain.RecordError{ItemCode: s.ItemCode, Field: "quantity_sold", Value: q, Err: fmt.Errorf("%w: not a finite number", domain.ErrInvalidRecord)}
		}
		if q < 0 {
			return &domain.RecordError{ItemCode: s.ItemCode, Field: "quantity_sold", Value: q, Err: fmt.Errorf("%w: negative value", domain.ErrInvalidRecord)}
		}
	}
	return nil
}

func summarize(code string, qty []float64) domain.DemandStats {
	n := len(qty)
	st := domain.DemandStats{ItemCode: code, Observations: n}
	if n == 0 {
		return st
	}

	var sum float64
	for _, q := range qty {
		sum += q
	}
	mean := sum / float64(n)
	st.MeanDemand = mean

	if n < 2 {
		return st
	}

	// second pass over the deviations from the mean
	var sq float64
	for _, q := range qty {
		d := q - mean
		sq += d * d
	}
	st.DemandStdDev = math.Sqrt(sq / float64(n-1))
	st.VarianceDefined = true
	return st
}

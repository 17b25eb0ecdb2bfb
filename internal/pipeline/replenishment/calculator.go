package replenishment

import (
	"fmt"
	"math"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// MetricsEngine derives safety stock, ideal stock, stockout risk and cost
// for every item present in both the stock snapshot and the demand statistics.
type MetricsEngine struct {
	z float64
}

// NewMetricsEngine creates a metrics engine using the given service level z
func NewMetricsEngine(z float64) *MetricsEngine {
	return &MetricsEngine{z: z}
}

// Compute inner-joins stock with demand on item code and calculates the
// metrics of each joined item, in stock order. Items found on one side only
// are dropped. Negative or non-finite quantities and prices abort the batch.
func (e *MetricsEngine) Compute(stock []domain.StockRecord, demand map[string]domain.DemandStats) ([]domain.ItemMetrics, error) {
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	metrics := make([]domain.ItemMetrics, 0, len(stock))
	for _, rec := range stock {
		d, ok := demand[rec.ItemCode]
		if !ok {
			continue
		}
		metrics = append(metrics, e.Calculate(rec, d))
	}
	return metrics, nil
}

// Calculate computes the metrics of one joined item.
//
//	safety_stock = z * demand_stddev * sqrt(quantity_on_hand)
//	ideal_stock  = mean_demand * quantity_on_hand + safety_stock
//	risk         = quantity_on_hand < ideal_stock
//	total_cost   = ideal_stock * unit_price
//
// The buffer scales with the on-hand quantity, not with lead-time demand.
// Without a defined deviation the safety stock is left undefined and the
// ideal stock covers expected consumption only.
func (e *MetricsEngine) Calculate(rec domain.StockRecord, d domain.DemandStats) domain.ItemMetrics {
	m := domain.ItemMetrics{
		StockRecord:     rec,
		MeanDemand:      d.MeanDemand,
		DemandStdDev:    d.DemandStdDev,
		Observations:    d.Observations,
		VarianceDefined: d.VarianceDefined,
	}

	// 1. Safety stock
	if d.VarianceDefined {
		m.SafetyStock = e.z * d.DemandStdDev * math.Sqrt(rec.QuantityOnHand)
		m.SafetyStockDefined = true
	} else {
		m.LowConfidence = true
	}

	// 2. Ideal stock
	m.IdealStock = d.MeanDemand*rec.QuantityOnHand + m.SafetyStock

	// 3. Stockout risk flag
	if rec.QuantityOnHand < m.IdealStock {
		m.StockoutRisk = 1
	}

	// 4. Cost of holding the ideal stock
	m.TotalCost = m.IdealStock * rec.UnitPrice

	return m
}

func validateStock(stock []domain.StockRecord) error {
	seen := make(map[string]struct{}, len(stock))
	for _, rec := range stock {
		if err := checkNonNegative(rec.ItemCode, "quantity_on_hand", rec.QuantityOnHand); err != nil {
			return err
		}
		if err := checkNonNegative(rec.ItemCode, "unit_price", rec.UnitPrice); err != nil {
			return err
		}
		if _, dup := seen[rec.ItemCode]; dup {
			return &domain.RecordError{ItemCode: rec.ItemCode, Field: "item_code", Err: domain.ErrDuplicateItem}
		}
		seen[rec.ItemCode] = struct{}{}
	}
	return nil
}

func checkNonNegative(code, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &domain.RecordError{ItemCode: code, Field: field, Value: v, Err: fmt.Errorf("%w: not a finite number", domain.ErrInvalidRecord)}
	}
	if v < 0 {
		return &domain.RecordError{ItemCode: code, Field: field, Value: v, Err: fmt.Errorf("%w: negative value", domain.ErrInvalidRecord)}
	}
	return nil
}

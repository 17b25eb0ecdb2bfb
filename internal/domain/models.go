// internal/domain/models.go
package domain

import "time"

// StockRecord is one row of the stock snapshot
type StockRecord struct {
	ItemCode       string  `json:"item_code" db:"item_code"`
	Name           string  `json:"name" db:"name"`
	QuantityOnHand float64 `json:"quantity_on_hand" db:"quantity_on_hand"`
	UnitPrice      float64 `json:"unit_price" db:"unit_price"`
}

// SaleEvent is one entry of the sales log
type SaleEvent struct {
	ItemCode     string    `json:"item_code" db:"item_code"`
	SaleDate     time.Time `json:"sale_date" db:"sale_date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
}

// DemandStats summarises the sales of a single item code.
// DemandStdDev is only meaningful when VarianceDefined is true; a group with a
// single observation has no sample standard deviation.
type DemandStats struct {
	ItemCode        string  `json:"item_code"`
	Observations    int     `json:"observations"`
	MeanDemand      float64 `json:"mean_demand"`
	DemandStdDev    float64 `json:"demand_stddev"`
	VarianceDefined bool    `json:"variance_defined"`
}

// ItemMetrics is a stock record joined with its demand statistics plus the derived metrics
type ItemMetrics struct {
	StockRecord
	MeanDemand      float64 `json:"mean_demand"`
	DemandStdDev    float64 `json:"demand_stddev"`
	Observations    int     `json:"observations"`
	VarianceDefined bool    `json:"variance_defined"`

	SafetyStock        float64 `json:"safety_stock"`
	SafetyStockDefined bool    `json:"safety_stock_defined"`
	IdealStock         float64 `json:"ideal_stock"`
	StockoutRisk       int     `json:"stockout_risk"` // 1 if on hand < ideal stock
	TotalCost          float64 `json:"total_cost"`

	// LowConfidence marks items whose safety stock could not be computed
	LowConfidence bool `json:"low_confidence"`
}

// AtRisk reports the stockout flag as a boolean
func (m ItemMetrics) AtRisk() bool {
	return m.StockoutRisk == 1
}

// ScoredItem is an ItemMetrics with its normalized features and reorder score
type ScoredItem struct {
	ItemMetrics
	MeanDemandNorm   float64 `json:"mean_demand_norm"`
	UnitPriceNorm    float64 `json:"unit_price_norm"`
	StockoutRiskNorm float64 `json:"stockout_risk_norm"`
	ReorderScore     float64 `json:"reorder_score"`
	Rank             int     `json:"rank"`
}

// Weights are the coefficients of the composite reorder score. They are not
// rescaled, so the score is bounded by their sum.
type Weights struct {
	Demand float64 `json:"demand"`
	Price  float64 `json:"price"`
	Risk   float64 `json:"risk"`
}

// DefaultWeights returns the 0.5/0.3/0.2 weighting
func DefaultWeights() Weights {
	return Weights{Demand: 0.5, Price: 0.3, Risk: 0.2}
}

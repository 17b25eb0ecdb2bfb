package replenishment

import (
	"github.com/andresuchdata/replenishment/internal/domain"
)

// Pipeline chains the demand aggregator, the metrics engine and the score
// normalizer over one in-memory snapshot. It holds no mutable state and can
// be shared by concurrent runs.
type Pipeline struct {
	params     Params
	aggregator *DemandAggregator
	engine     *MetricsEngine
	normalizer *ScoreNormalizer
}

// NewPipeline creates a pipeline after validating its parameters
func NewPipeline(params Params) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		params:     params,
		aggregator: NewDemandAggregator(),
		engine:     NewMetricsEngine(params.ServiceLevelZ),
		normalizer: NewScoreNormalizer(params.Weights),
	}, nil
}

// Params returns the parameters the pipeline was built with
func (p *Pipeline) Params() Params {
	return p.params
}

// Name returns the unique identifier of this pipeline.
func (p *Pipeline) Name() string {
	return "replenishment"
}

// Run ranks the stock snapshot against the given sales log. Callers filter
// the sales by date before calling Run. A negative or non-finite quantity
// sold fails the whole run with a *domain.RecordError.
func (p *Pipeline) Run(stock []domain.StockRecord, sales []domain.SaleEvent) (Result, error) {
	// 1) Demand statistics per item code
	if err := validateSales(sales); err != nil {
		return Result{}, err
	}
	demand := p.aggregator.Aggregate(sales)

	// 2) Join and derive metrics
	metrics, err := p.engine.Compute(stock, demand)
	if err != nil {
		return Result{}, err
	}

	// 3) Hold back low-confidence items when excluded
	rankable := metrics
	var unranked []domain.ItemMetrics
	if p.params.VariancePolicy == domain.VariancePolicyExclude {
		rankable = make([]domain.ItemMetrics, 0, len(metrics))
		for _, m := range metrics {
			if m.LowConfidence {
				unranked = append(unranked, m)
				continue
			}
			rankable = append(rankable, m)
		}
	}
	if unranked == nil {
		unranked = []domain.ItemMetrics{}
	}

	// 4) Normalize and rank
	ranked := p.normalizer.Score(rankable)

	return Result{
		Ranked:   ranked,
		Unranked: unranked,
		Dropped:  dropStats(stock, demand),
	}, nil
}

func dropStats(stock []domain.StockRecord, demand map[string]domain.DemandStats) domain.DropStats {
	var ds domain.DropStats
	inStock := make(map[string]struct{}, len(stock))
	for _, rec := range stock {
		inStock[rec.ItemCode] = struct{}{}
		if _, ok := demand[rec.ItemCode]; !ok {
			ds.StockOnly++
		}
	}
	for code := range demand {
		if _, ok := inStock[code]; !ok {
			ds.SalesOnly++
		}
	}
	return ds
}

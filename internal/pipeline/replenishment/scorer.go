package replenishment

import (
	"sort"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// ScoreNormalizer min-max scales mean demand, unit price and stockout risk
// across the item set and combines them into the weighted reorder score.
type ScoreNormalizer struct {
	weights domain.Weights
}

// NewScoreNormalizer creates a score normalizer with the given weights
func NewScoreNormalizer(weights domain.Weights) *ScoreNormalizer {
	return &ScoreNormalizer{weights: weights}
}

// Score returns a new ranked table sorted by descending reorder score, ties
// broken by ascending item code. The input slice is left untouched.
func (s *ScoreNormalizer) Score(items []domain.ItemMetrics) []domain.ScoredItem {
	if len(items) == 0 {
		return []domain.ScoredItem{}
	}

	demand := make([]float64, len(items))
	price := make([]float64, len(items))
	risk := make([]float64, len(items))
	for i, it := range items {
		demand[i] = it.MeanDemand
		price[i] = it.UnitPrice
		risk[i] = float64(it.StockoutRisk)
	}
	demandNorm := minMax(demand)
	priceNorm := minMax(price)
	riskNorm := minMax(risk)

	scored := make([]domain.ScoredItem, len(items))
	for i, it := range items {
		scored[i] = domain.ScoredItem{
			ItemMetrics:      it,
			MeanDemandNorm:   demandNorm[i],
			UnitPriceNorm:    priceNorm[i],
			StockoutRiskNorm: riskNorm[i],
			ReorderScore:     s.composite(demandNorm[i], priceNorm[i], riskNorm[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].ReorderScore != scored[j].ReorderScore {
			return scored[i].ReorderScore > scored[j].ReorderScore
		}
		return scored[i].ItemCode < scored[j].ItemCode
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}

	return scored
}

func (s *ScoreNormalizer) composite(demand, price, risk float64) float64 {
	score := s.weights.Demand*demand + s.weights.Price*price + s.weights.Risk*risk
	// weights summing to one must stay inside [0,1] despite float rounding
	if sum := s.weights.Sum(); sum <= 1+1e-12 && score > 1 {
		score = 1
	}
	return score
}

// minMax rescales values to [0,1]. A feature without spread maps to 0 everywhere.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		n := (v - lo) / span
		// clamp rounding drift at the edges
		if n < 0 {
			n = 0
		} else if n > 1 {
			n = 1
		}
		out[i] = n
	}
	return out
}

package replenishment

import (
	"fmt"
	"math"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// DefaultServiceLevelZ is the one-tailed z value for a ~95% service level
const DefaultServiceLevelZ = 1.65

// Params holds the tunable constants of a pipeline run.
// Reorder scores stay inside [0,1] only when the weights sum to 1; with a
// larger sum the top score equals that sum.
type Params struct {
	ServiceLevelZ  float64               // multiplier applied to the demand deviation
	Weights        domain.Weights        // reorder score coefficients
	VariancePolicy domain.VariancePolicy // ranking of items without a safety stock
}

// DefaultParams returns z=1.65, weights 0.5/0.3/0.2 and the exclude policy
func DefaultParams() Params {
	return Params{
		ServiceLevelZ:  DefaultServiceLevelZ,
		Weights:        domain.DefaultWeights(),
		VariancePolicy: domain.VariancePolicyExclude,
	}
}

// Validate checks that the parameters yield finite, bounded scores
func (p Params) Validate() error {
	if math.IsNaN(p.ServiceLevelZ) || math.IsInf(p.ServiceLevelZ, 0) || p.ServiceLevelZ < 0 {
		return fmt.Errorf("service level z must be a non-negative finite number, got %v", p.ServiceLevelZ)
	}
	if err := p.Weights.Validate(); err != nil {
		return err
	}
	switch p.VariancePolicy {
	case domain.VariancePolicyExclude, domain.VariancePolicyFlag:
		return nil
	default:
		return fmt.Errorf("unknown variance policy %d", p.VariancePolicy)
	}
}

// Result is the output of a full pipeline run
type Result struct {
	Ranked   []domain.ScoredItem  // descending reorder score, ties by item code
	Unranked []domain.ItemMetrics // low-confidence items held back by the exclude policy
	Dropped  domain.DropStats
}

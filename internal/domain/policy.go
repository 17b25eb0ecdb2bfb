package domain

import "strings"

// VariancePolicy decides how items without a computable safety stock are ranked
type VariancePolicy int

const (
	// VariancePolicyExclude keeps low-confidence items out of the ranking
	VariancePolicyExclude VariancePolicy = iota
	// VariancePolicyFlag ranks low-confidence items and leaves them flagged
	VariancePolicyFlag
)

var variancePolicyLabels = map[VariancePolicy]string{
	VariancePolicyExclude: "exclude",
	VariancePolicyFlag:    "flag",
}

var variancePolicyCodes = map[string]VariancePolicy{
	"exclude": VariancePolicyExclude,
	"flag":    VariancePolicyFlag,
}

func (p VariancePolicy) String() string {
	if label, ok := variancePolicyLabels[p]; ok {
		return label
	}

	return "unknown"
}

// ParseVariancePolicy returns the policy for a given label (case-insensitive).
func ParseVariancePolicy(label string) (VariancePolicy, bool) {
	policy, ok := variancePolicyCodes[strings.ToLower(strings.TrimSpace(label))]

	return policy, ok
}

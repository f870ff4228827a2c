package measures

import "github.com/farzadhallaji/semiJCP/cp"

// ErrorRateCriterion is the OE criterion: one when the true label falls
// outside the prediction set at the configured significance level, zero
// otherwise. Its mean is the empirical error rate, which validity promises
// stays at or below the significance level. trueLabel must be one of the
// prediction's labels.
type ErrorRateCriterion struct {
	Significance float64
}

func (ErrorRateCriterion) Name() string { return "Error rate criterion" }

func (c ErrorRateCriterion) Compute(p cp.Prediction, trueLabel float64) float64 {
	if pv, ok := pValueFor(p, trueLabel); ok && pv >= c.Significance {
		return 0
	}
	return 1
}

// ObservedUnconfidenceCriterion is the OU criterion: the largest p-value
// among the false labels. trueLabel must be one of the prediction's labels.
type ObservedUnconfidenceCriterion struct{}

func (ObservedUnconfidenceCriterion) Name() string { return "Observed unconfidence criterion" }

func (ObservedUnconfidenceCriterion) Compute(p cp.Prediction, trueLabel float64) float64 {
	max := 0.0
	labels := p.Labels()
	for i, pv := range p.PValues() {
		if labels[i] != trueLabel && pv > max {
			max = pv
		}
	}
	return max
}

// ObservedFuzzinessCriterion is the OF criterion: the sum of the p-values
// of the false labels. trueLabel must be one of the prediction's labels.
type ObservedFuzzinessCriterion struct{}

func (ObservedFuzzinessCriterion) Name() string { return "Observed fuzziness criterion" }

func (ObservedFuzzinessCriterion) Compute(p cp.Prediction, trueLabel float64) float64 {
	sum := 0.0
	labels := p.Labels()
	for i, pv := range p.PValues() {
		if labels[i] != trueLabel {
			sum += pv
		}
	}
	return sum
}

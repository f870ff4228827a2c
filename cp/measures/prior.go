package measures

import "github.com/farzadhallaji/semiJCP/cp"

// SumCriterion is the S criterion: the sum of all p-values. An efficient
// conformal predictor concentrates p-value mass on few labels, so small
// values are preferable.
type SumCriterion struct{}

func (SumCriterion) Name() string { return "Sum criterion" }

func (SumCriterion) Compute(p cp.Prediction) float64 {
	sum := 0.0
	for _, pv := range p.PValues() {
		sum += pv
	}
	return sum
}

// NumberCriterion is the N criterion: the size of the prediction set at the
// configured significance level.
type NumberCriterion struct {
	Significance float64
}

func (NumberCriterion) Name() string { return "Number criterion" }

func (c NumberCriterion) Compute(p cp.Prediction) float64 {
	return float64(len(p.PredictionSet(c.Significance)))
}

// UnconfidenceCriterion is the U criterion: the second-largest p-value,
// which is one minus the prediction's confidence.
type UnconfidenceCriterion struct{}

func (UnconfidenceCriterion) Name() string { return "Unconfidence criterion" }

func (UnconfidenceCriterion) Compute(p cp.Prediction) float64 {
	return 1 - p.Confidence()
}

// FuzzinessCriterion is the F criterion: the sum of the p-values with the
// largest one excluded.
type FuzzinessCriterion struct{}

func (FuzzinessCriterion) Name() string { return "Fuzziness criterion" }

func (FuzzinessCriterion) Compute(p cp.Prediction) float64 {
	return SumCriterion{}.Compute(p) - p.Credibility()
}

// MultipleCriterion is the M criterion: one when the prediction set at the
// configured significance level holds more than one label, zero otherwise.
// Its mean is the rate of indecisive predictions.
type MultipleCriterion struct {
	Significance float64
}

func (MultipleCriterion) Name() string { return "Multiple criterion" }

func (c MultipleCriterion) Compute(p cp.Prediction) float64 {
	if len(p.PredictionSet(c.Significance)) > 1 {
		return 1
	}
	return 0
}

// Package measures implements efficiency criteria for conformal
// classification: prior measures scored from a prediction alone and
// observed measures scored against the true label, following the criteria
// catalogue of Vovk et al., "Criteria of Efficiency for Conformal
// Prediction" (COPA 2016). Every criterion is oriented so that smaller
// values are preferable.
//
// Criteria are pure scoring rules; the Aggregated wrappers stream
// observations through them and keep count, mean, minimum and maximum. A
// Report bundles the standard set for one test pass.
package measures

import (
	"fmt"
	"sort"
	"strings"

	"github.com/farzadhallaji/semiJCP/cp"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// PriorMeasure scores a prediction without knowledge of the true label.
type PriorMeasure interface {
	Name() string
	Compute(p cp.Prediction) float64
}

// ObservedMeasure scores a prediction against the observed true label,
// which must be one of the prediction's labels.
type ObservedMeasure interface {
	Name() string
	Compute(p cp.Prediction, trueLabel float64) float64
}

// pValueFor looks up the p-value of label in the prediction's ascending
// label order.
func pValueFor(p cp.Prediction, label float64) (float64, bool) {
	labels := p.Labels()
	i := sort.SearchFloat64s(labels, label)
	if i >= len(labels) || labels[i] != label {
		return 0, false
	}
	return p.PValues()[i], true
}

// aggregate keeps the running summary of one value stream.
type aggregate struct {
	n        int
	sum      float64
	min, max float64
}

func (a *aggregate) add(v float64) {
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.n++
	a.sum += v
}

func (a *aggregate) mean() float64 {
	return errors.SafeDivide(a.sum, float64(a.n))
}

func (a *aggregate) describe(name string) string {
	if a.n == 0 {
		return fmt.Sprintf("%s: no observations", name)
	}
	return fmt.Sprintf("%s: %.6g [min %.6g, max %.6g] over %d observations",
		name, a.mean(), a.min, a.max, a.n)
}

// AggregatedPriorMeasure streams predictions through one prior measure.
type AggregatedPriorMeasure struct {
	measure PriorMeasure
	agg     aggregate
}

// NewAggregatedPriorMeasure wraps measure in an empty aggregate.
func NewAggregatedPriorMeasure(measure PriorMeasure) *AggregatedPriorMeasure {
	return &AggregatedPriorMeasure{measure: measure}
}

// Add records one prediction.
func (a *AggregatedPriorMeasure) Add(p cp.Prediction) {
	a.agg.add(a.measure.Compute(p))
}

// Name returns the wrapped criterion's name.
func (a *AggregatedPriorMeasure) Name() string { return a.measure.Name() }

// Value returns the mean criterion value over all observations, or 0 when
// nothing has been recorded.
func (a *AggregatedPriorMeasure) Value() float64 { return a.agg.mean() }

// Min returns the smallest recorded value.
func (a *AggregatedPriorMeasure) Min() float64 { return a.agg.min }

// Max returns the largest recorded value.
func (a *AggregatedPriorMeasure) Max() float64 { return a.agg.max }

// NumberOfObservations returns how many predictions have been recorded.
func (a *AggregatedPriorMeasure) NumberOfObservations() int { return a.agg.n }

func (a *AggregatedPriorMeasure) String() string { return a.agg.describe(a.measure.Name()) }

// AggregatedObservedMeasure streams (prediction, true label) pairs through
// one observed measure.
type AggregatedObservedMeasure struct {
	measure ObservedMeasure
	agg     aggregate
}

// NewAggregatedObservedMeasure wraps measure in an empty aggregate.
func NewAggregatedObservedMeasure(measure ObservedMeasure) *AggregatedObservedMeasure {
	return &AggregatedObservedMeasure{measure: measure}
}

// Add records one prediction with its true label.
func (a *AggregatedObservedMeasure) Add(p cp.Prediction, trueLabel float64) error {
	if _, ok := pValueFor(p, trueLabel); !ok {
		return errors.NewValueError("AggregatedObservedMeasure.Add",
			fmt.Sprintf("true label %g is not among the prediction's labels", trueLabel))
	}
	a.agg.add(a.measure.Compute(p, trueLabel))
	return nil
}

// Name returns the wrapped criterion's name.
func (a *AggregatedObservedMeasure) Name() string { return a.measure.Name() }

// Value returns the mean criterion value over all observations, or 0 when
// nothing has been recorded.
func (a *AggregatedObservedMeasure) Value() float64 { return a.agg.mean() }

// Min returns the smallest recorded value.
func (a *AggregatedObservedMeasure) Min() float64 { return a.agg.min }

// Max returns the largest recorded value.
func (a *AggregatedObservedMeasure) Max() float64 { return a.agg.max }

// NumberOfObservations returns how many pairs have been recorded.
func (a *AggregatedObservedMeasure) NumberOfObservations() int { return a.agg.n }

func (a *AggregatedObservedMeasure) String() string { return a.agg.describe(a.measure.Name()) }

// Report bundles the standard prior and observed measure aggregates for one
// test pass at a fixed significance level.
type Report struct {
	Prior    []*AggregatedPriorMeasure
	Observed []*AggregatedObservedMeasure
}

// NewReport creates a report with the standard criteria at the given
// significance level in (0, 1).
func NewReport(significance float64) (*Report, error) {
	if !(significance > 0 && significance < 1) {
		return nil, errors.NewValidationError("significance", "must be in (0, 1)", significance)
	}
	return &Report{
		Prior: []*AggregatedPriorMeasure{
			NewAggregatedPriorMeasure(SumCriterion{}),
			NewAggregatedPriorMeasure(NumberCriterion{Significance: significance}),
			NewAggregatedPriorMeasure(UnconfidenceCriterion{}),
			NewAggregatedPriorMeasure(FuzzinessCriterion{}),
			NewAggregatedPriorMeasure(MultipleCriterion{Significance: significance}),
		},
		Observed: []*AggregatedObservedMeasure{
			NewAggregatedObservedMeasure(ErrorRateCriterion{Significance: significance}),
			NewAggregatedObservedMeasure(ObservedUnconfidenceCriterion{}),
			NewAggregatedObservedMeasure(ObservedFuzzinessCriterion{}),
		},
	}, nil
}

// Add records one prediction with its true label in every measure of the
// report. The true label is validated before anything is recorded, so a
// failed Add leaves all aggregates untouched.
func (r *Report) Add(p cp.Prediction, trueLabel float64) error {
	if _, ok := pValueFor(p, trueLabel); !ok {
		return errors.NewValueError("measures.Report.Add",
			fmt.Sprintf("true label %g is not among the prediction's labels", trueLabel))
	}
	for _, m := range r.Prior {
		m.Add(p)
	}
	for _, m := range r.Observed {
		if err := m.Add(p, trueLabel); err != nil {
			return err
		}
	}
	return nil
}

// String renders every aggregate on its own line, prior measures first.
func (r *Report) String() string {
	var b strings.Builder
	for _, m := range r.Prior {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	for _, m := range r.Observed {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}

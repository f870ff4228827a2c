package cp

import (
	"fmt"
	"math"

	"github.com/farzadhallaji/semiJCP/nc"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// ConformalPredictor is the read surface a classification result keeps a
// non-owning reference to: the fixed ascending label order its p-values
// follow and the nonconformity function behind them.
type ConformalPredictor interface {
	Labels() []float64
	Nonconformity() nc.Function
}

// Prediction is the common read surface of conformal classification results.
// Implementations are immutable once constructed.
type Prediction interface {
	// PValues returns one p-value per candidate label, in Labels order.
	PValues() []float64

	// Labels returns the label order the p-values follow, ascending.
	Labels() []float64

	// PointPrediction returns the label with the uniquely largest p-value,
	// or NaN when the maximum is shared between labels.
	PointPrediction() float64

	// Confidence returns one minus the second-largest p-value.
	Confidence() float64

	// Credibility returns the largest p-value.
	Credibility() float64

	// PredictionSet returns the labels whose p-value is at least the
	// significance level.
	PredictionSet(significance float64) []float64

	// Source returns the predictor that produced this result, or nil when
	// it is no longer known.
	Source() ConformalPredictor
}

// MultiProbabilistic is implemented by predictions that additionally bound
// the point label's probability from below and above. Consumers check for
// the extension with a single interface assertion instead of branching on
// the producing protocol.
type MultiProbabilistic interface {
	Prediction
	ProbabilityBounds() (lower, upper float64)
}

// Classification is an immutable conformal classification result: one
// p-value per candidate label plus the point prediction summaries derived
// from them.
type Classification struct {
	source  ConformalPredictor
	labels  []float64
	pValues []float64

	pointPrediction float64
	confidence      float64
	credibility     float64
}

var _ Prediction = (*Classification)(nil)

// NewClassification wraps the p-value vector produced by source. The vector
// must hold one entry per source label and is copied.
func NewClassification(source ConformalPredictor, pValues []float64) (*Classification, error) {
	if source == nil {
		return nil, errors.NewValueError("cp.NewClassification", "source must not be nil")
	}
	labels := source.Labels()
	if len(pValues) != len(labels) {
		return nil, errors.NewDimensionError("cp.NewClassification", len(labels), len(pValues), 0)
	}
	c := &Classification{
		source:  source,
		labels:  labels,
		pValues: append([]float64(nil), pValues...),
	}
	c.derive()
	return c, nil
}

// derive computes the point prediction summaries in one pass over the
// p-values.
func (c *Classification) derive() {
	maxIdx := -1
	maxP := math.Inf(-1)
	secondP := math.Inf(-1)
	ties := 0
	for i, p := range c.pValues {
		switch {
		case p > maxP:
			secondP = maxP
			maxP = p
			maxIdx = i
			ties = 1
		case p == maxP:
			ties++
			secondP = p
		case p > secondP:
			secondP = p
		}
	}
	if ties == 1 {
		c.pointPrediction = c.labels[maxIdx]
	} else {
		c.pointPrediction = math.NaN()
	}
	if len(c.pValues) == 1 {
		secondP = 0
	}
	c.confidence = 1 - secondP
	c.credibility = maxP
}

// PValues returns a copy of the p-value vector, in Labels order.
func (c *Classification) PValues() []float64 {
	out := make([]float64, len(c.pValues))
	copy(out, c.pValues)
	return out
}

// Labels returns a copy of the label order the p-values follow.
func (c *Classification) Labels() []float64 {
	out := make([]float64, len(c.labels))
	copy(out, c.labels)
	return out
}

// PointPrediction returns the label with the uniquely largest p-value, or
// NaN when the maximum is tied.
func (c *Classification) PointPrediction() float64 { return c.pointPrediction }

// Confidence returns one minus the second-largest p-value.
func (c *Classification) Confidence() float64 { return c.confidence }

// Credibility returns the largest p-value.
func (c *Classification) Credibility() float64 { return c.credibility }

// PredictionSet returns the labels whose p-value is at least significance,
// in ascending label order.
func (c *Classification) PredictionSet(significance float64) []float64 {
	set := make([]float64, 0, len(c.labels))
	for i, p := range c.pValues {
		if p >= significance {
			set = append(set, c.labels[i])
		}
	}
	return set
}

// Source returns the predictor that produced this result.
func (c *Classification) Source() ConformalPredictor { return c.source }

// MultiProbabilisticClassification extends Classification with lower and
// upper bounds on the point label's probability, for protocols that
// calibrate probability estimates alongside the p-values.
type MultiProbabilisticClassification struct {
	Classification
	lower, upper float64
}

var _ MultiProbabilistic = (*MultiProbabilisticClassification)(nil)

// NewMultiProbabilisticClassification wraps a p-value vector together with
// the probability interval of its point prediction. The bounds must satisfy
// 0 <= lower <= upper <= 1.
func NewMultiProbabilisticClassification(source ConformalPredictor, pValues []float64, lower, upper float64) (*MultiProbabilisticClassification, error) {
	base, err := NewClassification(source, pValues)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower < 0 || upper > 1 || lower > upper {
		return nil, errors.NewValueError("cp.NewMultiProbabilisticClassification",
			fmt.Sprintf("probability bounds [%g, %g] are not an ordered pair in [0, 1]", lower, upper))
	}
	return &MultiProbabilisticClassification{Classification: *base, lower: lower, upper: upper}, nil
}

// ProbabilityBounds returns the lower and upper probability bounds for the
// point prediction.
func (m *MultiProbabilisticClassification) ProbabilityBounds() (lower, upper float64) {
	return m.lower, m.upper
}

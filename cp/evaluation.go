package cp

import (
	"fmt"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// Evaluation accumulates the batch evaluation report over (prediction, true
// label) pairs at a fixed significance level: overall and single-label
// accuracy, OneC and AvgC efficiency, a prediction-set-size histogram with
// per-size accuracy, and the same broken down per true class. Everything is
// exposed as plain counters and ratios; formatting is left to the caller.
//
// A prediction is counted correct when the true label's p-value is at least
// the significance level, that is when the true label is inside the
// prediction set.
type Evaluation struct {
	significance float64
	labels       []float64
	labelIndex   map[float64]int

	n       int
	correct int

	// histograms indexed by prediction-set size 0..L
	predictionsAtSize []int
	correctAtSize     []int

	// per-true-class counters indexed by label position
	predictionsForClass []int
	correctForClass     []int

	// class x size grid
	predictionsForClassAtSize [][]int
	correctForClassAtSize     [][]int
}

// NewEvaluation creates an empty evaluation over the given ascending label
// order at the given significance level in (0, 1).
func NewEvaluation(labels []float64, significance float64) (*Evaluation, error) {
	if len(labels) == 0 {
		return nil, errors.Wrap(errors.ErrNoLabels, "cp.NewEvaluation")
	}
	if !(significance > 0 && significance < 1) {
		return nil, errors.NewValidationError("significance", "must be in (0, 1)", significance)
	}
	labelIndex := make(map[float64]int, len(labels))
	for i, label := range labels {
		if _, dup := labelIndex[label]; dup {
			return nil, errors.Wrapf(errors.ErrDuplicateLabel, "cp.NewEvaluation: label %g", label)
		}
		labelIndex[label] = i
	}
	count := len(labels)
	e := &Evaluation{
		significance:              significance,
		labels:                    append([]float64(nil), labels...),
		labelIndex:                labelIndex,
		predictionsAtSize:         make([]int, count+1),
		correctAtSize:             make([]int, count+1),
		predictionsForClass:       make([]int, count),
		correctForClass:           make([]int, count),
		predictionsForClassAtSize: make([][]int, count),
		correctForClassAtSize:     make([][]int, count),
	}
	for i := range e.predictionsForClassAtSize {
		e.predictionsForClassAtSize[i] = make([]int, count+1)
		e.correctForClassAtSize[i] = make([]int, count+1)
	}
	return e, nil
}

// Add records one prediction together with its observed true label.
func (e *Evaluation) Add(p Prediction, trueLabel float64) error {
	classIdx, ok := e.labelIndex[trueLabel]
	if !ok {
		return errors.NewValueError("Evaluation.Add",
			fmt.Sprintf("true label %g is not in the label set", trueLabel))
	}
	pValues := p.PValues()
	if len(pValues) != len(e.labels) {
		return errors.NewDimensionError("Evaluation.Add", len(e.labels), len(pValues), 0)
	}

	size := 0
	for _, pv := range pValues {
		if pv >= e.significance {
			size++
		}
	}

	e.n++
	e.predictionsAtSize[size]++
	e.predictionsForClass[classIdx]++
	e.predictionsForClassAtSize[classIdx][size]++
	if pValues[classIdx] >= e.significance {
		e.correct++
		e.correctAtSize[size]++
		e.correctForClass[classIdx]++
		e.correctForClassAtSize[classIdx][size]++
	}
	return nil
}

// Count returns the number of recorded predictions.
func (e *Evaluation) Count() int { return e.n }

// Significance returns the significance level the report is computed at.
func (e *Evaluation) Significance() float64 { return e.significance }

// Labels returns the label order the per-class counters follow.
func (e *Evaluation) Labels() []float64 {
	out := make([]float64, len(e.labels))
	copy(out, e.labels)
	return out
}

// Accuracy returns the fraction of predictions whose set contains the true
// label. Validity promises this stays at or above one minus the
// significance level.
func (e *Evaluation) Accuracy() float64 {
	return errors.SafeDivide(float64(e.correct), float64(e.n))
}

// SingleLabelAccuracy returns the fraction of all predictions that were
// both of size one and correct.
func (e *Evaluation) SingleLabelAccuracy() float64 {
	return errors.SafeDivide(float64(e.correctAtSize[1]), float64(e.n))
}

// OneC returns the fraction of predictions with exactly one label, the
// share of decisive predictions.
func (e *Evaluation) OneC() float64 {
	return errors.SafeDivide(float64(e.predictionsAtSize[1]), float64(e.n))
}

// AvgC returns the average prediction-set size.
func (e *Evaluation) AvgC() float64 {
	total := 0
	for size, count := range e.predictionsAtSize {
		total += size * count
	}
	return errors.SafeDivide(float64(total), float64(e.n))
}

// SizeHistogram returns how many predictions had each set size 0..L.
func (e *Evaluation) SizeHistogram() []int {
	out := make([]int, len(e.predictionsAtSize))
	copy(out, e.predictionsAtSize)
	return out
}

// AccuracyAtSize returns the accuracy among predictions with the given set
// size. When no prediction had that size the metric is undefined; a
// warning is raised and 0 returned.
func (e *Evaluation) AccuracyAtSize(size int) float64 {
	if size < 0 || size >= len(e.predictionsAtSize) {
		return 0
	}
	if e.predictionsAtSize[size] == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("accuracy at size",
			fmt.Sprintf("no predictions of size %d", size), 0))
		return 0
	}
	return float64(e.correctAtSize[size]) / float64(e.predictionsAtSize[size])
}

// ClassHistogram returns how many predictions carried each true label, in
// label order.
func (e *Evaluation) ClassHistogram() []int {
	out := make([]int, len(e.predictionsForClass))
	copy(out, e.predictionsForClass)
	return out
}

// AccuracyForClass returns the accuracy among predictions whose true label
// sits at position classIdx of the label order.
func (e *Evaluation) AccuracyForClass(classIdx int) float64 {
	if classIdx < 0 || classIdx >= len(e.predictionsForClass) {
		return 0
	}
	if e.predictionsForClass[classIdx] == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("accuracy for class",
			fmt.Sprintf("no observations with label %g", e.labels[classIdx]), 0))
		return 0
	}
	return float64(e.correctForClass[classIdx]) / float64(e.predictionsForClass[classIdx])
}

// ClassSizeHistogram returns the prediction-set-size histogram restricted
// to observations with the true label at classIdx.
func (e *Evaluation) ClassSizeHistogram(classIdx int) []int {
	if classIdx < 0 || classIdx >= len(e.predictionsForClassAtSize) {
		return nil
	}
	out := make([]int, len(e.predictionsForClassAtSize[classIdx]))
	copy(out, e.predictionsForClassAtSize[classIdx])
	return out
}

// AccuracyForClassAtSize returns the accuracy among predictions of the
// given set size whose true label sits at classIdx.
func (e *Evaluation) AccuracyForClassAtSize(classIdx, size int) float64 {
	if classIdx < 0 || classIdx >= len(e.predictionsForClassAtSize) {
		return 0
	}
	if size < 0 || size >= len(e.predictionsForClassAtSize[classIdx]) {
		return 0
	}
	if e.predictionsForClassAtSize[classIdx][size] == 0 {
		return 0
	}
	return float64(e.correctForClassAtSize[classIdx][size]) /
		float64(e.predictionsForClassAtSize[classIdx][size])
}

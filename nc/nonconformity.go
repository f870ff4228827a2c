// Package nc implements the nonconformity functions used by the conformal
// predictors in cp: scoring rules that measure how strange a labeled example
// is under a fitted model. Higher scores mean more nonconforming.
//
// Three strategies are provided. HingeLoss scores with class probability
// estimates, MarginDistance with signed distances to a decision boundary, and
// AttributeAverage is model free. The Factory constructs them by strategy
// name and performs the capability checks, wrapping classifiers without
// probability output in a ClassProbabilityAdapter where needed.
package nc

import (
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func init() {
	gob.Register(&HingeLoss{})
	gob.Register(&MarginDistance{})
	gob.Register(&AttributeAverage{})
	gob.Register(&ClassProbabilityAdapter{})
}

// Function scores how strange labeled examples are relative to a fitted
// model. Implementations are immutable after construction: refitting always
// produces a new instance, so a single Function value can be shared across
// concurrent predictions.
type Function interface {
	// FitNew returns a new Function of the same kind whose internal model
	// has been trained on (X, y). The receiver is left untouched.
	// Implementations must not retain X or y; callers may reuse the
	// buffers for the next refit.
	FitNew(X mat.Matrix, y []float64) (Function, error)

	// Scores computes the nonconformity score of every (X[i], y[i]) pair.
	Scores(X mat.Matrix, y []float64) ([]float64, error)

	// Score computes the nonconformity score of a single labeled instance.
	// It is intended for reporting and debugging; batch scoring should go
	// through Scores.
	Score(instance mat.Vector, label float64) (float64, error)

	// Labels returns the label set, ascending.
	Labels() []float64

	// IsFitted reports whether the function can score examples.
	IsFitted() bool

	// NativeStorageTemplate returns an empty matrix in the storage layout
	// the underlying model prefers. Callers pass it to AllocLike to
	// pre-allocate compatible buffers and avoid per-call conversion.
	NativeStorageTemplate() mat.Matrix
}

var (
	_ Function = (*HingeLoss)(nil)
	_ Function = (*MarginDistance)(nil)
	_ Function = (*AttributeAverage)(nil)
)

// AllocLike returns a zeroed rows×cols matrix in the same storage layout as
// template. An unrecognized layout falls back to dense storage and emits a
// DataConversionWarning.
func AllocLike(template mat.Matrix, rows, cols int) *mat.Dense {
	switch template.(type) {
	case *mat.Dense, nil:
	default:
		errors.Warn(errors.NewDataConversionWarning(
			fmt.Sprintf("%T", template), "*mat.Dense", "unrecognized native storage layout"))
	}
	return mat.NewDense(rows, cols, nil)
}

// labelSet is a sorted set of class labels with constant-time index lookup.
type labelSet struct {
	labels []float64
	index  map[float64]int
}

func newLabelSet(labels []float64) (labelSet, error) {
	if len(labels) == 0 {
		return labelSet{}, errors.Wrap(errors.ErrNoLabels, "nonconformity function")
	}
	sorted := make([]float64, len(labels))
	copy(sorted, labels)
	sort.Float64s(sorted)

	index := make(map[float64]int, len(sorted))
	for i, label := range sorted {
		if math.IsNaN(label) {
			return labelSet{}, errors.NewValidationError("labels", "must not contain NaN", label)
		}
		if _, dup := index[label]; dup {
			return labelSet{}, errors.Wrapf(errors.ErrDuplicateLabel, "label %g", label)
		}
		index[label] = i
	}
	return labelSet{labels: sorted, index: index}, nil
}

func (s labelSet) indexOf(label float64) (int, bool) {
	i, ok := s.index[label]
	return i, ok
}

func (s labelSet) list() []float64 {
	out := make([]float64, len(s.labels))
	copy(out, s.labels)
	return out
}

// rowMatrix copies a vector into a 1×n matrix so single instances can reuse
// the batch scoring path.
func rowMatrix(v mat.Vector) *mat.Dense {
	row := mat.NewDense(1, v.Len(), nil)
	for j := 0; j < v.Len(); j++ {
		row.Set(0, j, v.AtVec(j))
	}
	return row
}

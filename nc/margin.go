package nc

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// MarginDistance scores a binary labeled example by the signed distance to
// the classifier's decision boundary, oriented so that an example deep on its
// own label's side scores low. With the labels sorted ascending and positive
// distances meaning the larger label, the score of (x, y) is -d(x) when y is
// the larger label and d(x) when it is the smaller one.
type MarginDistance struct {
	labels     labelSet
	classifier model.MarginClassifier
}

// NewMarginDistance creates a margin distance nonconformity function. It
// requires exactly two class labels and a classifier exposing
// decision-boundary distances.
func NewMarginDistance(labels []float64, classifier model.MarginClassifier) (*MarginDistance, error) {
	if classifier == nil {
		return nil, errors.NewConfigurationError(StrategyMarginDistance, "classifier must not be nil")
	}
	ls, err := newLabelSet(labels)
	if err != nil {
		return nil, err
	}
	if len(ls.labels) != 2 {
		return nil, errors.NewConfigurationError(StrategyMarginDistance,
			fmt.Sprintf("requires exactly two class labels, got %d", len(ls.labels)))
	}
	return &MarginDistance{labels: ls, classifier: classifier}, nil
}

// FitNew trains a fresh copy of the underlying classifier on (X, y) and
// returns a margin distance function over it. The receiver is not modified.
func (m *MarginDistance) FitNew(X mat.Matrix, y []float64) (Function, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("MarginDistance.FitNew", rows, len(y), 0)
	}
	fitted, err := m.classifier.FitNew(X, mat.NewVecDense(len(y), y))
	if err != nil {
		return nil, err
	}
	margin, ok := fitted.(model.MarginClassifier)
	if !ok {
		return nil, errors.NewConfigurationError(StrategyMarginDistance,
			fmt.Sprintf("refitted classifier %T no longer exposes decision-boundary distances", fitted))
	}
	return &MarginDistance{labels: m.labels, classifier: margin}, nil
}

// Scores computes the oriented decision-boundary distance for every row.
func (m *MarginDistance) Scores(X mat.Matrix, y []float64) ([]float64, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("MarginDistance.Scores", rows, len(y), 0)
	}
	dist, err := m.classifier.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, rows)
	for i, label := range y {
		d := dist.At(i, 0)
		switch label {
		case m.labels.labels[1]:
			scores[i] = -d
		case m.labels.labels[0]:
			scores[i] = d
		default:
			return nil, errors.NewValueError("MarginDistance.Scores",
				fmt.Sprintf("label %g is not in the label set", label))
		}
	}
	if err := errors.CheckNumericalStability("MarginDistance.Scores", scores, 0); err != nil {
		return nil, err
	}
	return scores, nil
}

// Score computes the nonconformity score of a single labeled instance.
func (m *MarginDistance) Score(instance mat.Vector, label float64) (float64, error) {
	scores, err := m.Scores(rowMatrix(instance), []float64{label})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// Labels returns the label set, ascending.
func (m *MarginDistance) Labels() []float64 {
	return m.labels.list()
}

// IsFitted reports whether the underlying classifier has been trained.
func (m *MarginDistance) IsFitted() bool {
	return m.classifier.IsFitted()
}

// NativeStorageTemplate returns the underlying classifier's preferred matrix
// layout, or a dense template when the classifier does not declare one.
func (m *MarginDistance) NativeStorageTemplate() mat.Matrix {
	if st, ok := m.classifier.(model.StorageTemplater); ok {
		return st.NativeStorageTemplate()
	}
	return &mat.Dense{}
}

type marginDistanceState struct {
	Labels     []float64
	Classifier model.MarginClassifier
}

// GobEncode serializes the label set and the classifier. The classifier's
// concrete type must be registered with encoding/gob.
func (m *MarginDistance) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := marginDistanceState{Labels: m.labels.list(), Classifier: m.classifier}
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores the function from GobEncode output.
func (m *MarginDistance) GobDecode(data []byte) error {
	var state marginDistanceState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	ls, err := newLabelSet(state.Labels)
	if err != nil {
		return err
	}
	m.labels = ls
	m.classifier = state.Classifier
	return nil
}

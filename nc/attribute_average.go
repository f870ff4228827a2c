package nc

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// AttributeAverage is a model-free nonconformity rule: fitting computes the
// per-class average of every feature, and the score of a labeled example is
// the mean absolute deviation of its features from its class's averages. It
// works with any label set and needs no classifier, at the cost of ignoring
// feature interactions.
type AttributeAverage struct {
	labels labelSet

	// centroids_ maps each label seen at fit time to its feature averages.
	centroids_ map[float64][]float64
	nFeatures_ int
}

// NewAttributeAverage creates an unfitted attribute average nonconformity
// function over the given label set.
func NewAttributeAverage(labels []float64) (*AttributeAverage, error) {
	ls, err := newLabelSet(labels)
	if err != nil {
		return nil, err
	}
	return &AttributeAverage{labels: ls}, nil
}

// FitNew computes per-class feature averages from (X, y) and returns a new
// fitted instance. The receiver is not modified.
func (a *AttributeAverage) FitNew(X mat.Matrix, y []float64) (Function, error) {
	rows, cols := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("AttributeAverage.FitNew", rows, len(y), 0)
	}
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "AttributeAverage.FitNew")
	}

	sums := make(map[float64][]float64)
	counts := make(map[float64]int)
	for i, label := range y {
		if _, ok := a.labels.indexOf(label); !ok {
			return nil, errors.NewValueError("AttributeAverage.FitNew",
				fmt.Sprintf("label %g is not in the label set", label))
		}
		s := sums[label]
		if s == nil {
			s = make([]float64, cols)
			sums[label] = s
		}
		for j := 0; j < cols; j++ {
			s[j] += X.At(i, j)
		}
		counts[label]++
	}

	centroids := make(map[float64][]float64, len(sums))
	for label, s := range sums {
		c := make([]float64, cols)
		n := float64(counts[label])
		for j := range s {
			c[j] = s[j] / n
		}
		centroids[label] = c
	}
	return &AttributeAverage{labels: a.labels, centroids_: centroids, nFeatures_: cols}, nil
}

// Scores computes the mean absolute deviation of every row from its label's
// feature averages.
func (a *AttributeAverage) Scores(X mat.Matrix, y []float64) ([]float64, error) {
	if !a.IsFitted() {
		return nil, errors.NewNotFittedError("AttributeAverage", "Scores")
	}
	rows, cols := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("AttributeAverage.Scores", rows, len(y), 0)
	}
	if cols != a.nFeatures_ {
		return nil, errors.NewDimensionError("AttributeAverage.Scores", a.nFeatures_, cols, 1)
	}

	scores := make([]float64, rows)
	for i, label := range y {
		centroid, ok := a.centroids_[label]
		if !ok {
			if _, known := a.labels.indexOf(label); !known {
				return nil, errors.NewValueError("AttributeAverage.Scores",
					fmt.Sprintf("label %g is not in the label set", label))
			}
			return nil, errors.NewValueError("AttributeAverage.Scores",
				fmt.Sprintf("no training examples with label %g", label))
		}
		var sum float64
		for j := 0; j < cols; j++ {
			sum += math.Abs(X.At(i, j) - centroid[j])
		}
		scores[i] = sum / float64(cols)
	}
	return scores, nil
}

// Score computes the nonconformity score of a single labeled instance.
func (a *AttributeAverage) Score(instance mat.Vector, label float64) (float64, error) {
	scores, err := a.Scores(rowMatrix(instance), []float64{label})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// Labels returns the label set, ascending.
func (a *AttributeAverage) Labels() []float64 {
	return a.labels.list()
}

// IsFitted reports whether feature averages have been computed.
func (a *AttributeAverage) IsFitted() bool {
	return a.centroids_ != nil
}

// NativeStorageTemplate returns a dense template; the rule has no underlying
// model with a layout preference.
func (a *AttributeAverage) NativeStorageTemplate() mat.Matrix {
	return &mat.Dense{}
}

type attributeAverageState struct {
	Labels    []float64
	Centroids map[float64][]float64
	NFeatures int
}

// GobEncode serializes the label set and the fitted feature averages.
func (a *AttributeAverage) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := attributeAverageState{Labels: a.labels.list(), Centroids: a.centroids_, NFeatures: a.nFeatures_}
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores the function from GobEncode output.
func (a *AttributeAverage) GobDecode(data []byte) error {
	var state attributeAverageState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	ls, err := newLabelSet(state.Labels)
	if err != nil {
		return err
	}
	a.labels = ls
	a.centroids_ = state.Centroids
	a.nFeatures_ = state.NFeatures
	return nil
}

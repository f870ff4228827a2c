package nc

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// ClassProbabilityAdapter makes a plain classifier usable where class
// probabilities are required. The pseudo-probability of the predicted label
// is one and every other label's is zero, which turns the hinge loss into a
// 0/1 misclassification indicator. Predictions outside the configured label
// set leave the whole row at zero.
type ClassProbabilityAdapter struct {
	labels     labelSet
	classifier model.Classifier
}

// NewClassProbabilityAdapter wraps classifier so it satisfies
// model.ProbabilityClassifier over the given label set.
func NewClassProbabilityAdapter(classifier model.Classifier, labels []float64) (*ClassProbabilityAdapter, error) {
	if classifier == nil {
		return nil, errors.NewConfigurationError("class probability adapter", "classifier must not be nil")
	}
	ls, err := newLabelSet(labels)
	if err != nil {
		return nil, err
	}
	return &ClassProbabilityAdapter{labels: ls, classifier: classifier}, nil
}

// Fit trains the wrapped classifier.
func (a *ClassProbabilityAdapter) Fit(X, y mat.Matrix) error {
	return a.classifier.Fit(X, y)
}

// FitNew trains a fresh copy of the wrapped classifier and returns it behind
// a new adapter.
func (a *ClassProbabilityAdapter) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	fitted, err := a.classifier.FitNew(X, y)
	if err != nil {
		return nil, err
	}
	return &ClassProbabilityAdapter{labels: a.labels, classifier: fitted}, nil
}

// Predict delegates to the wrapped classifier.
func (a *ClassProbabilityAdapter) Predict(X mat.Matrix) (mat.Matrix, error) {
	return a.classifier.Predict(X)
}

// PredictProba returns the 0/1 indicator of the wrapped classifier's point
// predictions, with columns following the configured label order.
func (a *ClassProbabilityAdapter) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	preds, err := a.classifier.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := preds.Dims()
	probs := mat.NewDense(rows, len(a.labels.labels), nil)
	for i := 0; i < rows; i++ {
		if j, ok := a.labels.indexOf(preds.At(i, 0)); ok {
			probs.Set(i, j, 1)
		}
	}
	return probs, nil
}

// Classes returns the configured label set, ascending.
func (a *ClassProbabilityAdapter) Classes() []float64 {
	return a.labels.list()
}

// IsFitted reports whether the wrapped classifier has been trained.
func (a *ClassProbabilityAdapter) IsFitted() bool {
	return a.classifier.IsFitted()
}

// Reset resets the wrapped classifier.
func (a *ClassProbabilityAdapter) Reset() {
	a.classifier.Reset()
}

// NativeStorageTemplate exposes the wrapped classifier's preferred matrix
// layout, or a dense template when it does not declare one.
func (a *ClassProbabilityAdapter) NativeStorageTemplate() mat.Matrix {
	if st, ok := a.classifier.(model.StorageTemplater); ok {
		return st.NativeStorageTemplate()
	}
	return &mat.Dense{}
}

type classProbabilityAdapterState struct {
	Labels     []float64
	Classifier model.Classifier
}

// GobEncode serializes the label set and the wrapped classifier. The
// classifier's concrete type must be registered with encoding/gob.
func (a *ClassProbabilityAdapter) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := classProbabilityAdapterState{Labels: a.labels.list(), Classifier: a.classifier}
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores the adapter from GobEncode output.
func (a *ClassProbabilityAdapter) GobDecode(data []byte) error {
	var state classProbabilityAdapterState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	ls, err := newLabelSet(state.Labels)
	if err != nil {
		return err
	}
	a.labels = ls
	a.classifier = state.Classifier
	return nil
}

package nc

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// HingeLoss scores a labeled example by the hinge loss of the classifier's
// probability estimate for that label, 1 - P(y|x). Scores lie in [0, 1]: an
// example whose label the classifier finds likely is conforming. A label the
// classifier was never trained on gets probability zero and scores 1.
type HingeLoss struct {
	labels     labelSet
	classifier model.ProbabilityClassifier
}

// NewHingeLoss creates a hinge loss nonconformity function over the given
// label set and probability classifier. Classifiers without probability
// output can be adapted first with NewClassProbabilityAdapter; the Factory
// does this automatically.
func NewHingeLoss(labels []float64, classifier model.ProbabilityClassifier) (*HingeLoss, error) {
	if classifier == nil {
		return nil, errors.NewConfigurationError(StrategyHingeLoss, "classifier must not be nil")
	}
	ls, err := newLabelSet(labels)
	if err != nil {
		return nil, err
	}
	return &HingeLoss{labels: ls, classifier: classifier}, nil
}

// FitNew trains a fresh copy of the underlying classifier on (X, y) and
// returns a hinge loss function over it. The receiver is not modified.
func (h *HingeLoss) FitNew(X mat.Matrix, y []float64) (Function, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("HingeLoss.FitNew", rows, len(y), 0)
	}
	fitted, err := h.classifier.FitNew(X, mat.NewVecDense(len(y), y))
	if err != nil {
		return nil, err
	}
	prob, ok := fitted.(model.ProbabilityClassifier)
	if !ok {
		return nil, errors.NewConfigurationError(StrategyHingeLoss,
			fmt.Sprintf("refitted classifier %T no longer exposes class probabilities", fitted))
	}
	return &HingeLoss{labels: h.labels, classifier: prob}, nil
}

// Scores computes 1 - P(y[i]|X[i]) for every row.
func (h *HingeLoss) Scores(X mat.Matrix, y []float64) ([]float64, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("HingeLoss.Scores", rows, len(y), 0)
	}
	probs, err := h.classifier.PredictProba(X)
	if err != nil {
		return nil, err
	}

	// Probability columns follow the classifier's own class order, which
	// can be a subset of the configured label set when the training data
	// did not contain every label.
	classes := h.classifier.Classes()
	colOf := make(map[float64]int, len(classes))
	for j, c := range classes {
		colOf[c] = j
	}

	scores := make([]float64, rows)
	for i, label := range y {
		if _, ok := h.labels.indexOf(label); !ok {
			return nil, errors.NewValueError("HingeLoss.Scores",
				fmt.Sprintf("label %g is not in the label set", label))
		}
		if j, ok := colOf[label]; ok {
			scores[i] = 1 - probs.At(i, j)
		} else {
			scores[i] = 1
		}
	}
	return scores, nil
}

// Score computes the nonconformity score of a single labeled instance.
func (h *HingeLoss) Score(instance mat.Vector, label float64) (float64, error) {
	scores, err := h.Scores(rowMatrix(instance), []float64{label})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// Labels returns the label set, ascending.
func (h *HingeLoss) Labels() []float64 {
	return h.labels.list()
}

// IsFitted reports whether the underlying classifier has been trained.
func (h *HingeLoss) IsFitted() bool {
	return h.classifier.IsFitted()
}

// NativeStorageTemplate returns the underlying classifier's preferred matrix
// layout, or a dense template when the classifier does not declare one.
func (h *HingeLoss) NativeStorageTemplate() mat.Matrix {
	if st, ok := h.classifier.(model.StorageTemplater); ok {
		return st.NativeStorageTemplate()
	}
	return &mat.Dense{}
}

type hingeLossState struct {
	Labels     []float64
	Classifier model.ProbabilityClassifier
}

// GobEncode serializes the label set and the classifier. The classifier's
// concrete type must be registered with encoding/gob.
func (h *HingeLoss) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := hingeLossState{Labels: h.labels.list(), Classifier: h.classifier}
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores the function from GobEncode output.
func (h *HingeLoss) GobDecode(data []byte) error {
	var state hingeLossState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	ls, err := newLabelSet(state.Labels)
	if err != nil {
		return err
	}
	h.labels = ls
	h.classifier = state.Classifier
	return nil
}

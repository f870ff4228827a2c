package nc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
)

// stubProbClassifier returns canned class probabilities regardless of the
// input rows' contents.
type stubProbClassifier struct {
	classes []float64
	probs   *mat.Dense
	fitted  bool
	fits    int
}

func (s *stubProbClassifier) Fit(X, y mat.Matrix) error {
	s.fitted = true
	s.fits++
	return nil
}

func (s *stubProbClassifier) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	return &stubProbClassifier{classes: s.classes, probs: s.probs, fitted: true}, nil
}

func (s *stubProbClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := s.probs.Dims()
	preds := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for j := 1; j < len(s.classes); j++ {
			if s.probs.At(i, j) > s.probs.At(i, best) {
				best = j
			}
		}
		preds.Set(i, 0, s.classes[best])
	}
	return preds, nil
}

func (s *stubProbClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	return s.probs, nil
}

func (s *stubProbClassifier) Classes() []float64 { return s.classes }
func (s *stubProbClassifier) IsFitted() bool     { return s.fitted }
func (s *stubProbClassifier) Reset()             { s.fitted = false }

// stubMarginClassifier returns canned decision-boundary distances.
type stubMarginClassifier struct {
	classes   []float64
	distances *mat.Dense
	fitted    bool
}

func (s *stubMarginClassifier) Fit(X, y mat.Matrix) error {
	s.fitted = true
	return nil
}

func (s *stubMarginClassifier) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	return &stubMarginClassifier{classes: s.classes, distances: s.distances, fitted: true}, nil
}

func (s *stubMarginClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := s.distances.Dims()
	preds := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if s.distances.At(i, 0) > 0 {
			preds.Set(i, 0, s.classes[1])
		} else {
			preds.Set(i, 0, s.classes[0])
		}
	}
	return preds, nil
}

func (s *stubMarginClassifier) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	return s.distances, nil
}

func (s *stubMarginClassifier) Classes() []float64 { return s.classes }
func (s *stubMarginClassifier) IsFitted() bool     { return s.fitted }
func (s *stubMarginClassifier) Reset()             { s.fitted = false }

// stubPointClassifier predicts canned labels and exposes no probability or
// margin capability.
type stubPointClassifier struct {
	classes []float64
	preds   *mat.Dense
	fitted  bool
}

func (s *stubPointClassifier) Fit(X, y mat.Matrix) error {
	s.fitted = true
	return nil
}

func (s *stubPointClassifier) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	return &stubPointClassifier{classes: s.classes, preds: s.preds, fitted: true}, nil
}

func (s *stubPointClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	return s.preds, nil
}

func (s *stubPointClassifier) Classes() []float64 { return s.classes }
func (s *stubPointClassifier) IsFitted() bool     { return s.fitted }
func (s *stubPointClassifier) Reset()             { s.fitted = false }

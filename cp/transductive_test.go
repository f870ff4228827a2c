package cp

import (
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/nc"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// firstColScore is a deterministic nonconformity stub: every example scores
// its first attribute, so p-values reduce to rank statistics that can be
// checked by hand. fits counts FitNew calls across all clones.
type firstColScore struct {
	labels  []float64
	fits    *int64
	failOn  float64
	hasFail bool
}

func (s *firstColScore) FitNew(X mat.Matrix, y []float64) (nc.Function, error) {
	if s.fits != nil {
		atomic.AddInt64(s.fits, 1)
	}
	if s.hasFail {
		rows, _ := X.Dims()
		if X.At(rows-1, 0) == s.failOn {
			return nil, errors.NewValueError("firstColScore.FitNew", "refusing to fit")
		}
	}
	return &firstColScore{labels: s.labels, fits: s.fits, failOn: s.failOn, hasFail: s.hasFail}, nil
}

func (s *firstColScore) Scores(X mat.Matrix, y []float64) ([]float64, error) {
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = X.At(i, 0)
	}
	return out, nil
}

func (s *firstColScore) Score(instance mat.Vector, label float64) (float64, error) {
	return instance.AtVec(0), nil
}

func (s *firstColScore) Labels() []float64 {
	return append([]float64(nil), s.labels...)
}

func (s *firstColScore) IsFitted() bool { return true }

func (s *firstColScore) NativeStorageTemplate() mat.Matrix { return &mat.Dense{} }

func fittedStubClassifier(t *testing.T, labels []float64, fits *int64, opts ...Option) *TransductiveClassifier {
	t.Helper()
	tcc, err := NewTransductiveClassifier(&firstColScore{labels: labels, fits: fits}, opts...)
	if err != nil {
		t.Fatalf("NewTransductiveClassifier failed: %v", err)
	}
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	if err := tcc.Fit(X, []float64{0, 0, 1, 1}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return tcc
}

func TestTransductiveClassifier_PValues(t *testing.T) {
	var fits int64
	tcc := fittedStubClassifier(t, []float64{0, 1}, &fits)

	pValues, err := tcc.PredictPValues(mat.NewVecDense(1, []float64{2.5}))
	if err != nil {
		t.Fatalf("PredictPValues failed: %v", err)
	}

	// two calibration scores of four are >= 2.5, so both hypotheses rank
	// the same: (2+1)/(4+1)
	for li, p := range pValues {
		if math.Abs(p-0.6) > 1e-15 {
			t.Errorf("pValues[%d] = %g, want 0.6", li, p)
		}
	}
	if fits != 2 {
		t.Errorf("FitNew ran %d times, want once per candidate label", fits)
	}
}

func TestTransductiveClassifier_PredictWrapsClassification(t *testing.T) {
	tcc := fittedStubClassifier(t, []float64{0, 1}, nil)

	c, err := tcc.Predict(mat.NewVecDense(1, []float64{2.5}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	// both labels share p = 0.6
	if got := c.PointPrediction(); !math.IsNaN(got) {
		t.Errorf("PointPrediction() = %g, want NaN for tied p-values", got)
	}
	if got := c.Credibility(); math.Abs(got-0.6) > 1e-15 {
		t.Errorf("Credibility() = %g, want 0.6", got)
	}
	if c.Source() != ConformalPredictor(tcc) {
		t.Error("Source() does not point back at the classifier")
	}
}

func TestTransductiveClassifier_LabelConditional(t *testing.T) {
	tcc := fittedStubClassifier(t, []float64{0, 1}, nil, WithLabelConditional(true))

	pValues, err := tcc.PredictPValues(mat.NewVecDense(1, []float64{2.5}))
	if err != nil {
		t.Fatalf("PredictPValues failed: %v", err)
	}

	// label 0 ranks against scores {1, 2}: (0+1)/(2+1)
	if math.Abs(pValues[0]-1.0/3.0) > 1e-15 {
		t.Errorf("pValues[0] = %g, want 1/3", pValues[0])
	}
	// label 1 ranks against scores {3, 4}: (2+1)/(2+1)
	if pValues[1] != 1 {
		t.Errorf("pValues[1] = %g, want 1", pValues[1])
	}
	if !tcc.LabelConditional() {
		t.Error("LabelConditional() = false, want true")
	}
}

func TestTransductiveClassifier_EmptyConditionalSubset(t *testing.T) {
	// label 2 never occurs in the calibration set, so its conditional
	// calibration sample is empty and the p-value must be 1
	tcc, err := NewTransductiveClassifier(&firstColScore{labels: []float64{0, 1, 2}},
		WithLabelConditional(true))
	if err != nil {
		t.Fatalf("NewTransductiveClassifier failed: %v", err)
	}
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	if err := tcc.Fit(X, []float64{0, 0, 1, 1}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pValues, err := tcc.PredictPValues(mat.NewVecDense(1, []float64{2.5}))
	if err != nil {
		t.Fatalf("PredictPValues failed: %v", err)
	}
	if pValues[2] != 1 {
		t.Errorf("pValues[2] = %g, want 1 for an empty conditional sample", pValues[2])
	}
}

func TestTransductiveClassifier_NotFittedErrors(t *testing.T) {
	tcc, err := NewTransductiveClassifier(&firstColScore{labels: []float64{0, 1}})
	if err != nil {
		t.Fatalf("NewTransductiveClassifier failed: %v", err)
	}

	if tcc.IsFitted() {
		t.Error("IsFitted() = true before Fit")
	}
	if got := tcc.AttributeCount(); got != -1 {
		t.Errorf("AttributeCount() = %d, want -1 before Fit", got)
	}
	if got := tcc.CalibrationSize(); got != 0 {
		t.Errorf("CalibrationSize() = %d, want 0 before Fit", got)
	}

	_, err = tcc.Predict(mat.NewVecDense(1, []float64{1}))
	var notFitted *errors.NotFittedError
	if !errors.As(err, &notFitted) {
		t.Errorf("Predict before Fit returned %v, want a NotFittedError", err)
	}

	_, err = tcc.PredictPValuesBatch(mat.NewDense(2, 1, []float64{1, 2}))
	if !errors.As(err, &notFitted) {
		t.Errorf("PredictPValuesBatch before Fit returned %v, want a NotFittedError", err)
	}
}

func TestTransductiveClassifier_FitValidation(t *testing.T) {
	newTCC := func(t *testing.T) *TransductiveClassifier {
		t.Helper()
		tcc, err := NewTransductiveClassifier(&firstColScore{labels: []float64{0, 1}})
		if err != nil {
			t.Fatalf("NewTransductiveClassifier failed: %v", err)
		}
		return tcc
	}

	t.Run("row and label counts must match", func(t *testing.T) {
		err := newTCC(t).Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{0, 1})
		var dimErr *errors.DimensionError
		if !errors.As(err, &dimErr) {
			t.Errorf("got %v, want a DimensionError", err)
		}
	})

	t.Run("labels outside the set are rejected", func(t *testing.T) {
		err := newTCC(t).Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{0, 7})
		if err == nil || !strings.Contains(err.Error(), "7") {
			t.Errorf("got %v, want an error naming label 7", err)
		}
	})

	t.Run("empty calibration set is rejected", func(t *testing.T) {
		err := newTCC(t).Fit(mat.NewDense(0, 1, nil), []float64{})
		if !errors.Is(err, errors.ErrEmptyData) {
			t.Errorf("got %v, want ErrEmptyData", err)
		}
	})

	t.Run("nil nonconformity function is rejected", func(t *testing.T) {
		if _, err := NewTransductiveClassifier(nil); err == nil {
			t.Error("expected an error for a nil nonconformity function")
		}
	})
}

func TestTransductiveClassifier_FeatureCountMismatch(t *testing.T) {
	tcc := fittedStubClassifier(t, []float64{0, 1}, nil)

	_, err := tcc.PredictPValues(mat.NewVecDense(3, []float64{1, 2, 3}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("got %v, want a DimensionError", err)
	}
}

func TestTransductiveClassifier_BatchRefitsPerInstanceAndLabel(t *testing.T) {
	var fits int64
	tcc := fittedStubClassifier(t, []float64{0, 1}, &fits)

	X := mat.NewDense(3, 1, []float64{0.5, 2.5, 4.5})
	if _, err := tcc.PredictPValuesBatch(X); err != nil {
		t.Fatalf("PredictPValuesBatch failed: %v", err)
	}
	if fits != 6 {
		t.Errorf("FitNew ran %d times, want 3 instances x 2 labels = 6", fits)
	}
}

func TestTransductiveClassifier_BatchMatchesSingle(t *testing.T) {
	tcc := fittedAttributeAverageClassifier(t, WithLeafSize(3))

	X := testInstances(25, 2)
	batch, err := tcc.PredictPValuesBatch(X)
	if err != nil {
		t.Fatalf("PredictPValuesBatch failed: %v", err)
	}

	rows, _ := X.Dims()
	for i := 0; i < rows; i++ {
		single, err := tcc.PredictPValues(X.RowView(i))
		if err != nil {
			t.Fatalf("PredictPValues(row %d) failed: %v", i, err)
		}
		for li, want := range single {
			if got := batch.At(i, li); got != want {
				t.Fatalf("batch row %d label %d = %g, single-instance = %g", i, li, got, want)
			}
		}
	}
}

func TestTransductiveClassifier_ParallelMatchesSequential(t *testing.T) {
	parallelTCC := fittedAttributeAverageClassifier(t, WithParallel(true), WithLeafSize(2))
	sequentialTCC := fittedAttributeAverageClassifier(t, WithParallel(false))

	X := testInstances(25, 2)
	got, err := parallelTCC.PredictPValuesBatch(X)
	if err != nil {
		t.Fatalf("parallel batch failed: %v", err)
	}
	want, err := sequentialTCC.PredictPValuesBatch(X)
	if err != nil {
		t.Fatalf("sequential batch failed: %v", err)
	}

	if !mat.Equal(got, want) {
		t.Error("parallel and sequential batches disagree")
	}
}

func TestTransductiveClassifier_BatchPropagatesWorkerError(t *testing.T) {
	tcc, err := NewTransductiveClassifier(
		&firstColScore{labels: []float64{0, 1}, failOn: 13, hasFail: true},
		WithLeafSize(1))
	if err != nil {
		t.Fatalf("NewTransductiveClassifier failed: %v", err)
	}
	if err := tcc.Fit(mat.NewDense(4, 1, []float64{1, 2, 3, 4}), []float64{0, 0, 1, 1}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	X := mat.NewDense(6, 1, []float64{1, 2, 13, 4, 5, 6})
	if _, err := tcc.PredictPValuesBatch(X); err == nil {
		t.Error("expected the worker error to surface from the batch")
	}
}

func TestTransductiveClassifier_SaveLoadRoundTrip(t *testing.T) {
	tcc := fittedAttributeAverageClassifier(t, WithLabelConditional(true))

	probe := mat.NewVecDense(2, []float64{1.5, 2.5})
	want, err := tcc.PredictPValues(probe)
	if err != nil {
		t.Fatalf("PredictPValues failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tcc.gob")
	if err := tcc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadTransductiveClassifier(path, WithParallel(false))
	if err != nil {
		t.Fatalf("LoadTransductiveClassifier failed: %v", err)
	}

	if !loaded.IsFitted() {
		t.Fatal("loaded classifier is not fitted")
	}
	if !loaded.LabelConditional() {
		t.Error("label-conditional flag was not restored")
	}
	if got, want := loaded.CalibrationSize(), tcc.CalibrationSize(); got != want {
		t.Errorf("CalibrationSize() = %d, want %d", got, want)
	}
	if got, want := loaded.AttributeCount(), tcc.AttributeCount(); got != want {
		t.Errorf("AttributeCount() = %d, want %d", got, want)
	}

	got, err := loaded.PredictPValues(probe)
	if err != nil {
		t.Fatalf("PredictPValues on the loaded classifier failed: %v", err)
	}
	for li := range want {
		if got[li] != want[li] {
			t.Errorf("pValues[%d] = %g after the round trip, want %g", li, got[li], want[li])
		}
	}
}

func TestTransductiveClassifier_Reset(t *testing.T) {
	tcc := fittedStubClassifier(t, []float64{0, 1}, nil)

	tcc.Reset()
	if tcc.IsFitted() {
		t.Error("IsFitted() = true after Reset")
	}
	if got := tcc.AttributeCount(); got != -1 {
		t.Errorf("AttributeCount() = %d after Reset, want -1", got)
	}

	// the classifier remains usable after another Fit
	if err := tcc.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{0, 1}); err != nil {
		t.Fatalf("Fit after Reset failed: %v", err)
	}
	if _, err := tcc.PredictPValues(mat.NewVecDense(1, []float64{1.5})); err != nil {
		t.Fatalf("PredictPValues after refit failed: %v", err)
	}
}

// fittedAttributeAverageClassifier builds a classifier over the model-free
// attribute-average nonconformity function with a deterministic two-feature
// calibration set.
func fittedAttributeAverageClassifier(t *testing.T, opts ...Option) *TransductiveClassifier {
	t.Helper()
	ncf, err := nc.NewAttributeAverage([]float64{0, 1})
	if err != nil {
		t.Fatalf("NewAttributeAverage failed: %v", err)
	}
	tcc, err := NewTransductiveClassifier(ncf, opts...)
	if err != nil {
		t.Fatalf("NewTransductiveClassifier failed: %v", err)
	}

	const rows = 40
	data := make([]float64, 0, rows*2)
	y := make([]float64, 0, rows)
	for i := 0; i < rows; i++ {
		data = append(data, float64(i%7), float64((3*i)%5))
		y = append(y, float64(i%2))
	}
	if err := tcc.Fit(mat.NewDense(rows, 2, data), y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return tcc
}

func testInstances(rows, cols int) *mat.Dense {
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows*cols; i++ {
		data = append(data, float64((i*2)%9)/2+float64(i%4))
	}
	return mat.NewDense(rows, cols, data)
}

func TestTransductiveClassifier_ValidityOnExchangeableData(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	sample := func(n int) (*mat.Dense, []float64) {
		X := mat.NewDense(n, 2, nil)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			center := -1.0
			if i%2 == 1 {
				center = 1.0
			}
			X.Set(i, 0, center+rng.NormFloat64())
			X.Set(i, 1, center+rng.NormFloat64())
			y[i] = center
		}
		return X, y
	}
	XTrain, yTrain := sample(60)
	XTest, yTest := sample(150)

	const significance = 0.25
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"plain", nil},
		{"label conditional", []Option{WithLabelConditional(true)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ncf, err := nc.NewAttributeAverage([]float64{-1, 1})
			if err != nil {
				t.Fatalf("NewAttributeAverage failed: %v", err)
			}
			tcc, err := NewTransductiveClassifier(ncf, tc.opts...)
			if err != nil {
				t.Fatalf("NewTransductiveClassifier failed: %v", err)
			}
			if err := tcc.Fit(XTrain, yTrain); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			pValues, err := tcc.PredictPValuesBatch(XTest)
			if err != nil {
				t.Fatalf("PredictPValuesBatch failed: %v", err)
			}

			excluded := 0
			for i, label := range yTest {
				idx, ok := tcc.LabelIndex(label)
				if !ok {
					t.Fatalf("label %g missing from the label set", label)
				}
				if pValues.At(i, idx) < significance {
					excluded++
				}
			}
			errorRate := float64(excluded) / float64(len(yTest))
			if errorRate > significance+0.15 {
				t.Errorf("empirical error rate %g exceeds significance %g beyond sampling tolerance",
					errorRate, significance)
			}
		})
	}
}

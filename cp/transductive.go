// Package cp implements transductive conformal classification: predictions
// carry one p-value per candidate label and come with a finite-sample
// validity guarantee under exchangeability.
//
// A TransductiveClassifier wraps a nonconformity function from nc. Fit
// stores the calibration set; for every test instance and candidate label,
// prediction refits the function on the calibration set augmented with the
// hypothesized example, ranks the augmented example's score among the
// calibration scores, and turns the rank into a p-value. Classification
// wraps the resulting vector with the point prediction, confidence and
// credibility; Evaluation and the measures subpackage aggregate results
// over a test set.
package cp

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"runtime"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/core/parallel"
	"github.com/farzadhallaji/semiJCP/nc"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
	"github.com/farzadhallaji/semiJCP/pkg/log"
)

func init() {
	gob.Register(&TransductiveClassifier{})
}

// calibration sets below this size are copied on the caller's goroutine
const copyParallelThreshold = 2048

// TransductiveClassifier is a conformal classifier that retrains its
// nonconformity function for every (instance, candidate label) hypothesis.
// It holds the calibration set verbatim instead of a fitted model; all the
// per-hypothesis work happens at prediction time, which buys the tightest
// use of the data at a steep computational price. Batch predictions
// amortize that price across CPU cores.
//
// The candidate labels and their order are fixed at construction from the
// nonconformity function's label set, ascending. Every p-value vector and
// result row produced by this classifier follows that order.
//
// A fitted classifier is safe for concurrent prediction calls. Fit and
// Reset must not race with predictions.
type TransductiveClassifier struct {
	ncFunc           nc.Function
	labels           []float64
	labelIndex       map[float64]int
	labelConditional bool
	parallel         bool
	leafSize         int
	state            *model.StateManager

	xtr_ *mat.Dense
	ytr_ []float64
}

// Option configures a TransductiveClassifier.
type Option func(*TransductiveClassifier)

// WithLabelConditional toggles label-conditional prediction: the p-value
// for a hypothesized label is ranked only against calibration examples
// carrying that label, giving per-label validity at the cost of coarser
// p-value resolution per label.
func WithLabelConditional(on bool) Option {
	return func(t *TransductiveClassifier) { t.labelConditional = on }
}

// WithParallel toggles parallel batch prediction. On by default; when
// disabled, batch calls run entirely on the caller's goroutine.
func WithParallel(on bool) Option {
	return func(t *TransductiveClassifier) { t.parallel = on }
}

// WithLeafSize sets how many instances a scheduler leaf processes with one
// augmented-set buffer during parallel batch prediction. Values below one
// select an automatic size.
func WithLeafSize(size int) Option {
	return func(t *TransductiveClassifier) { t.leafSize = size }
}

// NewTransductiveClassifier creates a transductive conformal classifier
// over the nonconformity function's label set. The classifier starts
// unfitted; call Fit to store a calibration set before predicting.
func NewTransductiveClassifier(ncFunc nc.Function, opts ...Option) (*TransductiveClassifier, error) {
	if ncFunc == nil {
		return nil, errors.NewConfigurationError("TransductiveClassifier", "nonconformity function must not be nil")
	}
	labels := ncFunc.Labels()
	if len(labels) == 0 {
		return nil, errors.Wrap(errors.ErrNoLabels, "TransductiveClassifier")
	}
	labelIndex := make(map[float64]int, len(labels))
	for i, label := range labels {
		if _, dup := labelIndex[label]; dup {
			return nil, errors.Wrapf(errors.ErrDuplicateLabel, "TransductiveClassifier: label %g", label)
		}
		labelIndex[label] = i
	}
	t := &TransductiveClassifier{
		ncFunc:     ncFunc,
		labels:     labels,
		labelIndex: labelIndex,
		parallel:   true,
		state:      model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Fit stores (X, y) as the calibration set, converted into the
// nonconformity function's native storage layout. The nonconformity
// function itself is not trained here; the transductive protocol refits it
// for every hypothesis at prediction time. Fitting again replaces the
// previous calibration set.
func (t *TransductiveClassifier) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows != len(y) {
		return errors.NewDimensionError("TransductiveClassifier.Fit", rows, len(y), 0)
	}
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "TransductiveClassifier.Fit")
	}
	for i, label := range y {
		if _, ok := t.labelIndex[label]; !ok {
			return errors.NewValueError("TransductiveClassifier.Fit",
				fmt.Sprintf("y[%d]: label %g is not in the label set", i, label))
		}
	}

	xtr := nc.AllocLike(t.ncFunc.NativeStorageTemplate(), rows, cols)
	parallel.ParallelizeWithThreshold(rows, copyParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				xtr.Set(i, j, X.At(i, j))
			}
		}
	})
	ytr := make([]float64, len(y))
	copy(ytr, y)

	t.xtr_ = xtr
	t.ytr_ = ytr
	t.state.SetFitted()
	t.state.SetDimensions(cols, rows)

	log.GetLoggerWithName("cp.transductive").Debug("calibration set stored",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(t.labels),
		log.LabelConditionalKey, t.labelConditional)
	return nil
}

// augmentedSet is the per-worker scratch buffer of the transductive
// protocol: the calibration rows plus one trailing slot for the
// (instance, hypothesized label) pair.
type augmentedSet struct {
	x *mat.Dense
	y []float64
}

// newAugmentedSet allocates an (n+1)-row buffer in the nonconformity
// function's native layout with the calibration set in rows 0..n-1.
func (t *TransductiveClassifier) newAugmentedSet() *augmentedSet {
	n := len(t.ytr_)
	_, cols := t.xtr_.Dims()
	x := nc.AllocLike(t.ncFunc.NativeStorageTemplate(), n+1, cols)
	for i := 0; i < n; i++ {
		x.SetRow(i, t.xtr_.RawRowView(i))
	}
	y := make([]float64, n+1)
	copy(y, t.ytr_)
	return &augmentedSet{x: x, y: y}
}

// setInstanceRow loads row i of X into the buffer's trailing slot.
func (a *augmentedSet) setInstanceRow(X mat.Matrix, i int) {
	n := len(a.y) - 1
	_, cols := a.x.Dims()
	for j := 0; j < cols; j++ {
		a.x.Set(n, j, X.At(i, j))
	}
}

// setInstanceVec loads v into the buffer's trailing slot.
func (a *augmentedSet) setInstanceVec(v mat.Vector) {
	n := len(a.y) - 1
	for j := 0; j < v.Len(); j++ {
		a.x.Set(n, j, v.AtVec(j))
	}
}

// hypothesize computes the p-value for every candidate label of the
// instance in buf's trailing row, writing one value per label into pValues.
// Each label hypothesis refits the nonconformity function on the augmented
// set and ranks the trailing row's score among the calibration scores; in
// label-conditional mode the ranking is restricted to calibration examples
// carrying the hypothesized label before sorting.
func (t *TransductiveClassifier) hypothesize(buf *augmentedSet, pValues []float64) error {
	n := len(t.ytr_)
	for li, label := range t.labels {
		buf.y[n] = label
		fitted, err := t.ncFunc.FitNew(buf.x, buf.y)
		if err != nil {
			return err
		}
		scores, err := fitted.Scores(buf.x, buf.y)
		if err != nil {
			return err
		}
		if len(scores) != n+1 {
			return errors.NewDimensionError("TransductiveClassifier.hypothesize", n+1, len(scores), 0)
		}
		testScore := scores[n]
		calibration := scores[:n]
		if t.labelConditional {
			// compaction writes at or before the read index, so
			// filtering in place over the score slice is safe
			kept := 0
			for i := 0; i < n; i++ {
				if t.ytr_[i] == label {
					calibration[kept] = scores[i]
					kept++
				}
			}
			calibration = calibration[:kept]
		}
		sort.Float64s(calibration)
		pValues[li] = PValue(testScore, calibration)
	}
	return nil
}

func (t *TransductiveClassifier) checkPredictable(featureCount int, method string) error {
	if !t.state.IsFitted() {
		return errors.NewNotFittedError("TransductiveClassifier", method)
	}
	_, cols := t.xtr_.Dims()
	if featureCount != cols {
		return errors.NewDimensionError("TransductiveClassifier."+method, cols, featureCount, 1)
	}
	return nil
}

// PredictPValues computes the p-value vector of a single instance, one
// entry per candidate label in Labels order.
func (t *TransductiveClassifier) PredictPValues(instance mat.Vector) ([]float64, error) {
	if err := t.checkPredictable(instance.Len(), "PredictPValues"); err != nil {
		return nil, err
	}
	buf := t.newAugmentedSet()
	buf.setInstanceVec(instance)
	pValues := make([]float64, len(t.labels))
	if err := t.hypothesize(buf, pValues); err != nil {
		return nil, err
	}
	return pValues, nil
}

// Predict classifies a single instance and wraps its p-value vector in a
// Classification.
func (t *TransductiveClassifier) Predict(instance mat.Vector) (*Classification, error) {
	pValues, err := t.PredictPValues(instance)
	if err != nil {
		return nil, err
	}
	return NewClassification(t, pValues)
}

// PredictPValuesBatch computes one p-value row per instance row of X. Rows
// of the result are index-aligned with X regardless of scheduling order,
// and parallel runs produce the same values as sequential ones.
func (t *TransductiveClassifier) PredictPValuesBatch(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if err := t.checkPredictable(cols, "PredictPValuesBatch"); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, len(t.labels), nil)
	if rows == 0 {
		return out, nil
	}

	begin := time.Now()
	workers := 1
	if t.parallel {
		workers = runtime.GOMAXPROCS(0)
		err := parallel.ForkJoin(rows, t.leafSize, workers,
			func() (interface{}, error) { return t.newAugmentedSet(), nil },
			func(state interface{}, i int) error {
				buf := state.(*augmentedSet)
				buf.setInstanceRow(X, i)
				return t.hypothesize(buf, out.RawRowView(i))
			})
		if err != nil {
			return nil, err
		}
	} else {
		buf := t.newAugmentedSet()
		for i := 0; i < rows; i++ {
			buf.setInstanceRow(X, i)
			if err := t.hypothesize(buf, out.RawRowView(i)); err != nil {
				return nil, err
			}
		}
	}

	log.GetLoggerWithName("cp.transductive").Debug("batch prediction finished",
		log.OperationKey, log.OperationPredictPValue,
		log.SamplesKey, rows,
		log.WorkersKey, workers,
		log.DurationMsKey, time.Since(begin).Milliseconds())
	return out, nil
}

// PredictBatch classifies every row of X, returning results index-aligned
// with the input rows.
func (t *TransductiveClassifier) PredictBatch(X mat.Matrix) ([]*Classification, error) {
	pValues, err := t.PredictPValuesBatch(X)
	if err != nil {
		return nil, err
	}
	rows, _ := pValues.Dims()
	results := make([]*Classification, rows)
	for i := range results {
		c, err := NewClassification(t, pValues.RawRowView(i))
		if err != nil {
			return nil, err
		}
		results[i] = c
	}
	return results, nil
}

// Labels returns the candidate labels in the fixed ascending order the
// p-value vectors follow.
func (t *TransductiveClassifier) Labels() []float64 {
	out := make([]float64, len(t.labels))
	copy(out, t.labels)
	return out
}

// LabelIndex returns the position of label in the label order.
func (t *TransductiveClassifier) LabelIndex(label float64) (int, bool) {
	i, ok := t.labelIndex[label]
	return i, ok
}

// Nonconformity returns the nonconformity function prototype that the
// transductive protocol refits per hypothesis.
func (t *TransductiveClassifier) Nonconformity() nc.Function { return t.ncFunc }

// LabelConditional reports whether prediction is label conditional.
func (t *TransductiveClassifier) LabelConditional() bool { return t.labelConditional }

// IsFitted reports whether a calibration set is stored.
func (t *TransductiveClassifier) IsFitted() bool { return t.state.IsFitted() }

// AttributeCount returns the number of features in the calibration set, or
// -1 before Fit.
func (t *TransductiveClassifier) AttributeCount() int {
	if !t.state.IsFitted() {
		return -1
	}
	_, cols := t.xtr_.Dims()
	return cols
}

// CalibrationSize returns the number of stored calibration examples, or 0
// before Fit.
func (t *TransductiveClassifier) CalibrationSize() int { return len(t.ytr_) }

// Reset returns the classifier to its unfitted state, dropping the
// calibration set. The nonconformity function and options are kept.
func (t *TransductiveClassifier) Reset() {
	t.xtr_ = nil
	t.ytr_ = nil
	t.state.Reset()
}

// transductiveState is the gob wire form of a TransductiveClassifier.
type transductiveState struct {
	Nonconformity    nc.Function
	Labels           []float64
	LabelConditional bool
	Rows, Cols       int
	XtrData          []float64
	Ytr              []float64
}

// GobEncode serializes the nonconformity function together with the label
// order, the label-conditional flag and the calibration set as row-major
// values. Runtime options such as parallelism are not part of the wire
// form.
func (t *TransductiveClassifier) GobEncode() ([]byte, error) {
	state := transductiveState{
		Nonconformity:    t.ncFunc,
		Labels:           t.Labels(),
		LabelConditional: t.labelConditional,
	}
	if t.state.IsFitted() {
		rows, cols := t.xtr_.Dims()
		state.Rows, state.Cols = rows, cols
		data := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			data = append(data, t.xtr_.RawRowView(i)...)
		}
		state.XtrData = data
		state.Ytr = append([]float64(nil), t.ytr_...)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a classifier saved with GobEncode, re-converting the
// calibration set into the nonconformity function's native storage layout.
// Runtime options reset to their defaults.
func (t *TransductiveClassifier) GobDecode(data []byte) error {
	var state transductiveState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	if state.Nonconformity == nil || len(state.Labels) == 0 {
		return errors.NewValueError("TransductiveClassifier.GobDecode",
			"model data is missing the nonconformity function or label set")
	}
	labelIndex := make(map[float64]int, len(state.Labels))
	for i, label := range state.Labels {
		labelIndex[label] = i
	}
	t.ncFunc = state.Nonconformity
	t.labels = state.Labels
	t.labelIndex = labelIndex
	t.labelConditional = state.LabelConditional
	t.parallel = true
	t.leafSize = 0
	t.state = model.NewStateManager()
	t.xtr_ = nil
	t.ytr_ = nil
	if state.Rows > 0 {
		if len(state.XtrData) != state.Rows*state.Cols || len(state.Ytr) != state.Rows {
			return errors.NewValueError("TransductiveClassifier.GobDecode",
				"calibration set dimensions are inconsistent")
		}
		xtr := nc.AllocLike(t.ncFunc.NativeStorageTemplate(), state.Rows, state.Cols)
		for i := 0; i < state.Rows; i++ {
			xtr.SetRow(i, state.XtrData[i*state.Cols:(i+1)*state.Cols])
		}
		t.xtr_ = xtr
		t.ytr_ = state.Ytr
		t.state.SetFitted()
		t.state.SetDimensions(state.Cols, state.Rows)
	}
	return nil
}

// Save writes the classifier to path in gob format.
func (t *TransductiveClassifier) Save(path string) error {
	return model.SaveModel(t, path)
}

// Load restores the classifier from a file written by Save, replacing the
// receiver's state.
func (t *TransductiveClassifier) Load(path string) error {
	return model.LoadModel(t, path)
}

// LoadTransductiveClassifier reads a classifier from path and applies opts
// on top of the restored state, so runtime preferences can be set in the
// same call.
func LoadTransductiveClassifier(path string, opts ...Option) (*TransductiveClassifier, error) {
	t := &TransductiveClassifier{}
	if err := t.Load(path); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

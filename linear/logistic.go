// Package linear provides the linear reference classifiers used underneath
// the nonconformity functions: logistic regression with class probability
// estimates and a passive-aggressive classifier with decision-boundary
// distances. Both implement the capability interfaces in core/model, train
// deterministically, and serialize with encoding/gob so they can travel
// inside a saved conformal model.
package linear

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func init() {
	gob.Register(&LogisticRegression{})
}

var (
	_ model.ProbabilityClassifier = (*LogisticRegression)(nil)
	_ model.StorageTemplater      = (*LogisticRegression)(nil)
	_ model.WeightExporter        = (*LogisticRegression)(nil)
)

// LogisticRegression implements logistic regression for classification.
// Binary problems train a single weight vector; larger label sets train
// one-vs-rest. Weights start at zero, so refits on the same data yield the
// same model.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Configured class labels; empty means extract from the training data
	configuredClasses []float64

	// Model parameters
	coef_      [][]float64 // Coefficients (1 x n_features for binary, else n_classes x n_features)
	intercept_ []float64   // Intercept terms
	classes_   []float64   // Class labels, ascending
	nFeatures_ int         // Number of features
	nIter_     []int       // Actual iterations per weight vector
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}

	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRClasses fixes the class labels up front instead of extracting them
// from the training data. A classifier under a conformal predictor must
// keep the same probability columns even when a refit sample happens to
// miss a label, so conformal callers always set this.
func WithLRClasses(classes []float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.configuredClasses = append([]float64(nil), classes...)
	}
}

// Fit trains the logistic regression model. y is an (n, 1) matrix of class
// labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}

	if err := lr.resolveClasses(y); err != nil {
		return err
	}
	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	if lr.nClasses() == 2 {
		lr.fitWeightVector(X, lr.binaryTargets(y, lr.classes_[1]), 0)
	} else {
		// one-vs-rest
		for classIdx, class := range lr.classes_ {
			lr.fitWeightVector(X, lr.binaryTargets(y, class), classIdx)
		}
	}

	lr.state.SetFitted()
	lr.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// resolveClasses fixes classes_ from the configured set or the training
// labels.
func (lr *LogisticRegression) resolveClasses(y mat.Matrix) error {
	if len(lr.configuredClasses) > 0 {
		lr.classes_ = append([]float64(nil), lr.configuredClasses...)
		sortFloats(lr.classes_)
		known := make(map[float64]bool, len(lr.classes_))
		for _, c := range lr.classes_ {
			known[c] = true
		}
		rows, _ := y.Dims()
		for i := 0; i < rows; i++ {
			if !known[y.At(i, 0)] {
				return errors.NewValueError("LogisticRegression.Fit",
					fmt.Sprintf("y[%d]: label %g is not among the configured classes", i, y.At(i, 0)))
			}
		}
	} else {
		lr.classes_ = extractClasses(y)
	}
	if len(lr.classes_) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "need at least two class labels")
	}
	return nil
}

func (lr *LogisticRegression) nClasses() int { return len(lr.classes_) }

// binaryTargets returns 0/1 targets marking rows whose label equals
// positive.
func (lr *LogisticRegression) binaryTargets(y mat.Matrix, positive float64) []float64 {
	rows, _ := y.Dims()
	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if y.At(i, 0) == positive {
			targets[i] = 1.0
		}
	}
	return targets
}

// initializeWeights allocates zeroed weights, one vector for the binary
// case and one per class otherwise. Zero initialization keeps refits on
// identical data identical.
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	vectors := 1
	if lr.nClasses() > 2 {
		vectors = lr.nClasses()
	}
	lr.coef_ = make([][]float64, vectors)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
	}
	lr.intercept_ = make([]float64, vectors)
	lr.nIter_ = make([]int, vectors)
}

// fitWeightVector runs gradient descent for one weight vector against 0/1
// targets.
func (lr *LogisticRegression) fitWeightVector(X mat.Matrix, targets []float64, idx int) {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[idx]
	intercept := &lr.intercept_[idx]

	baseLearningRate := 1.0

	for iter := 0; iter < lr.maxIter; iter++ {
		// Compute gradients from the sigmoid residuals
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - targets[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		// Scale gradients by number of samples
		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		// Add L2 regularization gradient
		if lr.penalty == "l2" {
			lambda := 1.0 / lr.C
			for j := range weights {
				gradWeights[j] += lambda * weights[j]
			}
		}

		// Adaptive learning rate
		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		lr.nIter_[idx] = iter + 1

		// Check convergence
		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			return
		}
	}

	errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_[idx],
		"maximum number of iterations reached"))
}

// decisionScore computes the raw linear score of row i under weight vector
// idx.
func (lr *LogisticRegression) decisionScore(X mat.Matrix, i, idx int) float64 {
	z := lr.intercept_[idx]
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(i, j) * lr.coef_[idx][j]
	}
	return z
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.Predict", lr.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)

	if lr.nClasses() == 2 {
		for i := 0; i < nSamples; i++ {
			if sigmoid(lr.decisionScore(X, i, 0)) >= 0.5 {
				predictions.Set(i, 0, lr.classes_[1])
			} else {
				predictions.Set(i, 0, lr.classes_[0])
			}
		}
	} else {
		for i := 0; i < nSamples; i++ {
			maxScore := math.Inf(-1)
			bestClass := lr.classes_[0]
			for classIdx := range lr.classes_ {
				if score := lr.decisionScore(X, i, classIdx); score > maxScore {
					maxScore = score
					bestClass = lr.classes_[classIdx]
				}
			}
			predictions.Set(i, 0, bestClass)
		}
	}

	return predictions, nil
}

// PredictProba returns probability estimates for each class, columns in
// Classes order, rows summing to one.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures_, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, lr.nClasses(), nil)

	if lr.nClasses() == 2 {
		for i := 0; i < nSamples; i++ {
			prob1 := sigmoid(lr.decisionScore(X, i, 0))
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
		}
	} else {
		// softmax over the one-vs-rest scores
		for i := 0; i < nSamples; i++ {
			scores := make([]float64, lr.nClasses())
			maxScore := math.Inf(-1)
			for classIdx := range lr.classes_ {
				scores[classIdx] = lr.decisionScore(X, i, classIdx)
				if scores[classIdx] > maxScore {
					maxScore = scores[classIdx]
				}
			}
			sum := 0.0
			for classIdx := range scores {
				scores[classIdx] = math.Exp(scores[classIdx] - maxScore)
				sum += scores[classIdx]
			}
			for classIdx := range scores {
				probas.Set(i, classIdx, scores[classIdx]/sum)
			}
		}
	}

	return probas, nil
}

// Classes returns the class labels in ascending order.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes_...)
}

// FitNew trains a fresh classifier with the receiver's configuration on
// (X, y), leaving the receiver untouched.
func (lr *LogisticRegression) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	clone := lr.cloneConfig()
	if err := clone.Fit(X, y); err != nil {
		return nil, err
	}
	return clone, nil
}

func (lr *LogisticRegression) cloneConfig() *LogisticRegression {
	return &LogisticRegression{
		state:             model.NewStateManager(),
		penalty:           lr.penalty,
		C:                 lr.C,
		fitIntercept:      lr.fitIntercept,
		maxIter:           lr.maxIter,
		tol:               lr.tol,
		configuredClasses: append([]float64(nil), lr.configuredClasses...),
	}
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return errors.SafeDivide(float64(correct), float64(nSamples)), nil
}

// IsFitted returns whether the model has been fitted.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// Reset returns the model to its unfitted state, keeping the configuration.
func (lr *LogisticRegression) Reset() {
	lr.coef_ = nil
	lr.intercept_ = nil
	lr.classes_ = nil
	lr.nFeatures_ = 0
	lr.nIter_ = nil
	lr.state.Reset()
}

// NativeStorageTemplate returns the dense layout this model reads fastest.
func (lr *LogisticRegression) NativeStorageTemplate() mat.Matrix { return &mat.Dense{} }

// NIterations returns the iterations run per weight vector in the last fit.
func (lr *LogisticRegression) NIterations() []int {
	return append([]int(nil), lr.nIter_...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			lr.penalty = value.(string)
		case "C":
			lr.C = value.(float64)
		case "fit_intercept":
			lr.fitIntercept = value.(bool)
		case "max_iter":
			lr.maxIter = value.(int)
		case "tol":
			lr.tol = value.(float64)
		default:
			return errors.NewValueError("LogisticRegression.SetParams",
				fmt.Sprintf("unknown parameter: %s", key))
		}
	}
	return nil
}

// ExportWeights returns the learned weights for inspection or transfer.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "ExportWeights")
	}
	coef := make([][]float64, len(lr.coef_))
	for i := range lr.coef_ {
		coef[i] = append([]float64(nil), lr.coef_[i]...)
	}
	return &model.ModelWeights{
		ModelType:       "LogisticRegression",
		Version:         "1.0",
		Coefficients:    coef,
		Intercepts:      append([]float64(nil), lr.intercept_...),
		Classes:         lr.Classes(),
		Hyperparameters: lr.GetParams(),
	}, nil
}

// ImportWeights replaces the learned weights.
func (lr *LogisticRegression) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil || weights.ModelType != "LogisticRegression" {
		return errors.NewValueError("LogisticRegression.ImportWeights",
			"weights do not describe a LogisticRegression model")
	}
	if len(weights.Coefficients) == 0 || len(weights.Coefficients) != len(weights.Intercepts) {
		return errors.NewValueError("LogisticRegression.ImportWeights",
			"coefficient and intercept counts disagree")
	}
	lr.coef_ = make([][]float64, len(weights.Coefficients))
	for i := range weights.Coefficients {
		lr.coef_[i] = append([]float64(nil), weights.Coefficients[i]...)
	}
	lr.intercept_ = append([]float64(nil), weights.Intercepts...)
	lr.classes_ = append([]float64(nil), weights.Classes...)
	lr.nFeatures_ = len(lr.coef_[0])
	lr.nIter_ = make([]int, len(lr.coef_))
	lr.state.SetFitted()
	return nil
}

// logisticState is the gob wire form of a LogisticRegression.
type logisticState struct {
	Penalty           string
	C                 float64
	FitIntercept      bool
	MaxIter           int
	Tol               float64
	ConfiguredClasses []float64

	Coef      [][]float64
	Intercept []float64
	Classes   []float64
	NFeatures int
	NIter     []int
	Fitted    bool
}

// GobEncode serializes the configuration and learned parameters.
func (lr *LogisticRegression) GobEncode() ([]byte, error) {
	state := logisticState{
		Penalty:           lr.penalty,
		C:                 lr.C,
		FitIntercept:      lr.fitIntercept,
		MaxIter:           lr.maxIter,
		Tol:               lr.tol,
		ConfiguredClasses: lr.configuredClasses,
		Coef:              lr.coef_,
		Intercept:         lr.intercept_,
		Classes:           lr.classes_,
		NFeatures:         lr.nFeatures_,
		NIter:             lr.nIter_,
		Fitted:            lr.state.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a classifier saved with GobEncode.
func (lr *LogisticRegression) GobDecode(data []byte) error {
	var state logisticState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	lr.penalty = state.Penalty
	lr.C = state.C
	lr.fitIntercept = state.FitIntercept
	lr.maxIter = state.MaxIter
	lr.tol = state.Tol
	lr.configuredClasses = state.ConfiguredClasses
	lr.coef_ = state.Coef
	lr.intercept_ = state.Intercept
	lr.classes_ = state.Classes
	lr.nFeatures_ = state.NFeatures
	lr.nIter_ = state.NIter
	lr.state = model.NewStateManager()
	if state.Fitted {
		lr.state.SetFitted()
	}
	return nil
}

// extractClasses collects the distinct labels of y in ascending order.
func extractClasses(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	classMap := make(map[float64]bool)
	for i := 0; i < rows; i++ {
		classMap[y.At(i, 0)] = true
	}

	classes := make([]float64, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sortFloats(classes)
	return classes
}

// sortFloats sorts in place; label sets are small enough that the quadratic
// pass does not matter.
func sortFloats(values []float64) {
	for i := 0; i < len(values)-1; i++ {
		for j := i + 1; j < len(values); j++ {
			if values[i] > values[j] {
				values[i], values[j] = values[j], values[i]
			}
		}
	}
}

// sigmoid computes the logistic function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

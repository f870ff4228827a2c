package linear

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func init() {
	gob.Register(&PassiveAggressiveClassifier{})
}

var (
	_ model.MarginClassifier = (*PassiveAggressiveClassifier)(nil)
	_ model.StorageTemplater = (*PassiveAggressiveClassifier)(nil)
	_ model.WeightExporter   = (*PassiveAggressiveClassifier)(nil)
)

// PassiveAggressiveClassifier is a binary online max-margin classifier.
// Examples inside the margin trigger an aggressive update sized by the
// hinge loss; examples outside it leave the weights alone. Training visits
// the samples in order with no randomness, so refits on the same data
// yield the same model. The signed distance to the decision boundary is
// exposed through DecisionFunction, positive toward the larger class
// label.
type PassiveAggressiveClassifier struct {
	state *model.StateManager

	// Hyperparameters
	C            float64 // Aggressiveness parameter
	loss         string  // Loss function: "hinge", "squared_hinge"
	fitIntercept bool    // Whether to learn an intercept
	maxIter      int     // Maximum passes over the data

	// Configured class labels; empty means extract from the training data
	configuredClasses []float64

	// Model parameters
	coef_      []float64 // Weight vector
	intercept_ float64   // Intercept term
	classes_   []float64 // The two class labels, ascending
	nFeatures_ int       // Number of features

	// Training state
	nIter_     int  // Passes actually run
	converged_ bool // Whether an update-free pass was reached
}

// PassiveAggressiveOption is a functional option for
// PassiveAggressiveClassifier
type PassiveAggressiveOption func(*PassiveAggressiveClassifier)

// NewPassiveAggressiveClassifier creates a new PassiveAggressiveClassifier
func NewPassiveAggressiveClassifier(opts ...PassiveAggressiveOption) *PassiveAggressiveClassifier {
	pa := &PassiveAggressiveClassifier{
		state:        model.NewStateManager(),
		C:            1.0,
		loss:         "hinge",
		fitIntercept: true,
		maxIter:      1000,
	}

	for _, opt := range opts {
		opt(pa)
	}

	return pa
}

// WithPAC sets the aggressiveness parameter
func WithPAC(c float64) PassiveAggressiveOption {
	return func(pa *PassiveAggressiveClassifier) {
		pa.C = c
	}
}

// WithPALoss sets the loss function
func WithPALoss(loss string) PassiveAggressiveOption {
	return func(pa *PassiveAggressiveClassifier) {
		pa.loss = loss
	}
}

// WithPAMaxIter sets the maximum number of passes over the data
func WithPAMaxIter(maxIter int) PassiveAggressiveOption {
	return func(pa *PassiveAggressiveClassifier) {
		pa.maxIter = maxIter
	}
}

// WithPAFitIntercept sets whether to learn an intercept
func WithPAFitIntercept(fit bool) PassiveAggressiveOption {
	return func(pa *PassiveAggressiveClassifier) {
		pa.fitIntercept = fit
	}
}

// WithPAClasses fixes the two class labels up front instead of extracting
// them from the training data.
func WithPAClasses(classes []float64) PassiveAggressiveOption {
	return func(pa *PassiveAggressiveClassifier) {
		pa.configuredClasses = append([]float64(nil), classes...)
	}
}

// Fit trains the classifier. y is an (n, 1) matrix holding exactly two
// distinct class labels; the larger one is the positive side of the
// boundary.
func (pa *PassiveAggressiveClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples != yRows {
		return errors.NewDimensionError("PassiveAggressiveClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("PassiveAggressiveClassifier.Fit", 1, yCols, 1)
	}
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "PassiveAggressiveClassifier.Fit")
	}

	if err := pa.resolveClasses(y); err != nil {
		return err
	}

	pa.nFeatures_ = nFeatures
	pa.coef_ = make([]float64, nFeatures)
	pa.intercept_ = 0
	pa.nIter_ = 0
	pa.converged_ = false

	// +1 for the larger label, -1 for the smaller
	targets := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.At(i, 0) == pa.classes_[1] {
			targets[i] = 1
		} else {
			targets[i] = -1
		}
	}

	xi := make([]float64, nFeatures)
	for iter := 0; iter < pa.maxIter; iter++ {
		updates := 0
		for i := 0; i < nSamples; i++ {
			for j := 0; j < nFeatures; j++ {
				xi[j] = X.At(i, j)
			}
			if pa.updateWeights(xi, targets[i]) {
				updates++
			}
		}
		pa.nIter_ = iter + 1

		// a pass without updates means every sample clears the margin
		if updates == 0 {
			pa.converged_ = true
			break
		}
	}

	if !pa.converged_ {
		errors.Warn(errors.NewConvergenceWarning("PassiveAggressiveClassifier", pa.nIter_,
			"maximum number of passes reached"))
	}

	pa.state.SetFitted()
	pa.state.SetDimensions(nFeatures, nSamples)
	return nil
}

// resolveClasses fixes classes_ from the configured set or the training
// labels and enforces the binary restriction.
func (pa *PassiveAggressiveClassifier) resolveClasses(y mat.Matrix) error {
	if len(pa.configuredClasses) > 0 {
		pa.classes_ = append([]float64(nil), pa.configuredClasses...)
		sortFloats(pa.classes_)
	} else {
		pa.classes_ = extractClasses(y)
	}
	if len(pa.classes_) != 2 {
		return errors.NewValueError("PassiveAggressiveClassifier.Fit",
			fmt.Sprintf("need exactly two class labels, got %d", len(pa.classes_)))
	}

	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		if label := y.At(i, 0); label != pa.classes_[0] && label != pa.classes_[1] {
			return errors.NewValueError("PassiveAggressiveClassifier.Fit",
				fmt.Sprintf("y[%d]: label %g is not among the classes", i, label))
		}
	}
	return nil
}

// updateWeights applies one passive-aggressive step and reports whether the
// sample triggered an update.
func (pa *PassiveAggressiveClassifier) updateWeights(x []float64, target float64) bool {
	score := pa.intercept_
	for i, xi := range x {
		score += pa.coef_[i] * xi
	}

	margin := target * score
	if margin >= 1 {
		return false
	}

	// Both hinge losses step proportional to the margin shortfall.
	tau := (1 - margin) / (dotProduct(x, x) + 1.0/(2.0*pa.C))
	tau *= target

	for i, xi := range x {
		pa.coef_[i] += tau * xi
	}
	if pa.fitIntercept {
		pa.intercept_ += tau
	}
	return true
}

// DecisionFunction returns the signed distance of every row to the
// decision boundary as an (n, 1) matrix. Positive values point toward the
// larger class label.
func (pa *PassiveAggressiveClassifier) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if !pa.state.IsFitted() {
		return nil, errors.NewNotFittedError("PassiveAggressiveClassifier", "DecisionFunction")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != pa.nFeatures_ {
		return nil, errors.NewDimensionError("PassiveAggressiveClassifier.DecisionFunction",
			pa.nFeatures_, nFeatures, 1)
	}

	distances := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		score := pa.intercept_
		for j := 0; j < nFeatures; j++ {
			score += X.At(i, j) * pa.coef_[j]
		}
		distances.Set(i, 0, score)
	}
	return distances, nil
}

// Predict assigns every row the class label on its side of the boundary.
func (pa *PassiveAggressiveClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	distances, err := pa.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := distances.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if distances.At(i, 0) > 0 {
			predictions.Set(i, 0, pa.classes_[1])
		} else {
			predictions.Set(i, 0, pa.classes_[0])
		}
	}
	return predictions, nil
}

// Classes returns the two class labels in ascending order.
func (pa *PassiveAggressiveClassifier) Classes() []float64 {
	return append([]float64(nil), pa.classes_...)
}

// FitNew trains a fresh classifier with the receiver's configuration on
// (X, y), leaving the receiver untouched.
func (pa *PassiveAggressiveClassifier) FitNew(X, y mat.Matrix) (model.Classifier, error) {
	clone := &PassiveAggressiveClassifier{
		state:             model.NewStateManager(),
		C:                 pa.C,
		loss:              pa.loss,
		fitIntercept:      pa.fitIntercept,
		maxIter:           pa.maxIter,
		configuredClasses: append([]float64(nil), pa.configuredClasses...),
	}
	if err := clone.Fit(X, y); err != nil {
		return nil, err
	}
	return clone, nil
}

// Score returns the mean accuracy on the given test data and labels
func (pa *PassiveAggressiveClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := pa.Predict(X)
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
func (pa *PassiveAggressiveClassifier) IsFitted() bool { return pa.state.IsFitted() }

// Reset returns the model to its unfitted state, keeping the configuration.
func (pa *PassiveAggressiveClassifier) Reset() {
	pa.coef_ = nil
	pa.intercept_ = 0
	pa.classes_ = nil
	pa.nFeatures_ = 0
	pa.nIter_ = 0
	pa.converged_ = false
	pa.state.Reset()
}

// NativeStorageTemplate returns the dense layout this model reads fastest.
func (pa *PassiveAggressiveClassifier) NativeStorageTemplate() mat.Matrix { return &mat.Dense{} }

// NIterations returns how many passes the last fit ran.
func (pa *PassiveAggressiveClassifier) NIterations() int { return pa.nIter_ }

// Converged reports whether the last fit reached an update-free pass.
func (pa *PassiveAggressiveClassifier) Converged() bool { return pa.converged_ }

// GetParams returns the model hyperparameters
func (pa *PassiveAggressiveClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             pa.C,
		"loss":          pa.loss,
		"fit_intercept": pa.fitIntercept,
		"max_iter":      pa.maxIter,
	}
}

// SetParams sets the model hyperparameters
func (pa *PassiveAggressiveClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C":
			pa.C = value.(float64)
		case "loss":
			pa.loss = value.(string)
		case "fit_intercept":
			pa.fitIntercept = value.(bool)
		case "max_iter":
			pa.maxIter = value.(int)
		default:
			return errors.NewValueError("PassiveAggressiveClassifier.SetParams",
				fmt.Sprintf("unknown parameter: %s", key))
		}
	}
	return nil
}

// ExportWeights returns the learned weights for inspection or transfer.
func (pa *PassiveAggressiveClassifier) ExportWeights() (*model.ModelWeights, error) {
	if !pa.state.IsFitted() {
		return nil, errors.NewNotFittedError("PassiveAggressiveClassifier", "ExportWeights")
	}
	return &model.ModelWeights{
		ModelType:       "PassiveAggressiveClassifier",
		Version:         "1.0",
		Coefficients:    [][]float64{append([]float64(nil), pa.coef_...)},
		Intercepts:      []float64{pa.intercept_},
		Classes:         pa.Classes(),
		Hyperparameters: pa.GetParams(),
	}, nil
}

// ImportWeights replaces the learned weights.
func (pa *PassiveAggressiveClassifier) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil || weights.ModelType != "PassiveAggressiveClassifier" {
		return errors.NewValueError("PassiveAggressiveClassifier.ImportWeights",
			"weights do not describe a PassiveAggressiveClassifier model")
	}
	if len(weights.Coefficients) != 1 || len(weights.Intercepts) != 1 {
		return errors.NewValueError("PassiveAggressiveClassifier.ImportWeights",
			"expected a single weight vector and intercept")
	}
	pa.coef_ = append([]float64(nil), weights.Coefficients[0]...)
	pa.intercept_ = weights.Intercepts[0]
	pa.classes_ = append([]float64(nil), weights.Classes...)
	pa.nFeatures_ = len(pa.coef_)
	pa.state.SetFitted()
	return nil
}

// passiveAggressiveState is the gob wire form of a
// PassiveAggressiveClassifier.
type passiveAggressiveState struct {
	C                 float64
	Loss              string
	FitIntercept      bool
	MaxIter           int
	ConfiguredClasses []float64

	Coef      []float64
	Intercept float64
	Classes   []float64
	NFeatures int
	NIter     int
	Converged bool
	Fitted    bool
}

// GobEncode serializes the configuration and learned parameters.
func (pa *PassiveAggressiveClassifier) GobEncode() ([]byte, error) {
	state := passiveAggressiveState{
		C:                 pa.C,
		Loss:              pa.loss,
		FitIntercept:      pa.fitIntercept,
		MaxIter:           pa.maxIter,
		ConfiguredClasses: pa.configuredClasses,
		Coef:              pa.coef_,
		Intercept:         pa.intercept_,
		Classes:           pa.classes_,
		NFeatures:         pa.nFeatures_,
		NIter:             pa.nIter_,
		Converged:         pa.converged_,
		Fitted:            pa.state.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a classifier saved with GobEncode.
func (pa *PassiveAggressiveClassifier) GobDecode(data []byte) error {
	var state passiveAggressiveState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	pa.C = state.C
	pa.loss = state.Loss
	pa.fitIntercept = state.FitIntercept
	pa.maxIter = state.MaxIter
	pa.configuredClasses = state.ConfiguredClasses
	pa.coef_ = state.Coef
	pa.intercept_ = state.Intercept
	pa.classes_ = state.Classes
	pa.nFeatures_ = state.NFeatures
	pa.nIter_ = state.NIter
	pa.converged_ = state.Converged
	pa.state = model.NewStateManager()
	if state.Fitted {
		pa.state.SetFitted()
	}
	return nil
}

// dotProduct returns the inner product of two equal-length vectors.
func dotProduct(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Package model provides the common interfaces and state management shared by
// all estimators: classifiers, transformers, and the conformal predictors
// built on top of them.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator is the minimal interface implemented by every model.
type Estimator interface {
	// IsFitted reports whether the model has been trained.
	IsFitted() bool

	// Reset returns the model to its untrained state.
	Reset()
}

// Fitter is the interface for models that learn from labeled data.
type Fitter interface {
	// Fit trains the model on feature matrix X and target vector y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that predict targets for new data.
type Predictor interface {
	// Predict returns predictions for the rows of X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Model is the basic supervised learning interface.
type Model interface {
	Fitter
	Predictor
}

// Scorer is the interface for models that can evaluate themselves on labeled
// data. For classifiers the score is point-prediction accuracy.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Transformer is the interface for data transformations such as scaling.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits the parameters and transforms X in one call.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Persistable is the interface for models that can be saved to and loaded
// from a file.
type Persistable interface {
	// Save writes the model to path.
	Save(path string) error

	// Load restores the model from path.
	Load(path string) error
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow hyperparameter
// modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

package model

import "gonum.org/v1/gonum/mat"

// Classifier is the interface for classification models. Class labels are
// float64 values; Classes returns them in ascending order and Predict returns
// one label per input row as an (n, 1) matrix.
type Classifier interface {
	Estimator
	Model

	// Classes returns the class labels the model was configured or trained
	// with, in ascending order.
	Classes() []float64

	// FitNew trains a fresh instance with the receiver's configuration on
	// (X, y) and returns it. The receiver is left untouched, so concurrent
	// FitNew calls on a shared prototype are safe. Implementations must
	// copy what they need from X and y rather than retain them; callers
	// may reuse the buffers for the next refit.
	FitNew(X, y mat.Matrix) (Classifier, error)
}

// ProbabilityClassifier is a Classifier that estimates class membership
// probabilities. PredictProba returns an (n, len(Classes())) matrix whose
// columns follow the Classes order and whose rows sum to one.
type ProbabilityClassifier interface {
	Classifier

	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// MarginClassifier is a Classifier that exposes a signed distance to its
// decision boundary. DecisionFunction returns an (n, 1) matrix for binary
// classifiers; positive values indicate the larger class label.
type MarginClassifier interface {
	Classifier

	DecisionFunction(X mat.Matrix) (*mat.Dense, error)
}

// StorageTemplater is implemented by models with a preferred matrix storage
// layout. The returned template is an empty matrix value of that layout;
// callers use it to pre-allocate compatible buffers and avoid conversion on
// every call.
type StorageTemplater interface {
	NativeStorageTemplate() mat.Matrix
}

// WeightExporter is the interface for models that expose their learned
// weights for inspection or export.
type WeightExporter interface {
	// ExportWeights returns the model's learned weights.
	ExportWeights() (*ModelWeights, error)

	// ImportWeights replaces the model's weights.
	ImportWeights(weights *ModelWeights) error
}

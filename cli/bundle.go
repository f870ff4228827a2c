// Package cli provides the plumbing shared by the semiJCP command line
// tools: persisted model bundles, the JSON instance and result formats,
// and the batch evaluation driver.
//
// A model bundle couples a fitted transductive classifier with the
// scaler that prepared its training data, so a saved model can be
// applied to raw instances without re-creating the preprocessing step
// by hand. Bundles travel in the same gob format the classifiers use
// for their own persistence.
package cli

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/cp"
	"github.com/farzadhallaji/semiJCP/pkg/errors"

	// Registers the scaler implementations with gob so bundles that
	// carry one can be decoded.
	_ "github.com/farzadhallaji/semiJCP/preprocessing"
)

// ModelBundle is a self-contained persistence unit pairing a fitted
// classifier with its preprocessing state and identifying metadata.
type ModelBundle struct {
	ID          string
	CreatedAt   time.Time
	Description string
	Classifier  *cp.TransductiveClassifier
	Scaler      model.Transformer
}

// BundleOption configures a model bundle at construction time.
type BundleOption func(*ModelBundle)

// WithScaler attaches the fitted scaler that was applied to the training
// data. TransformInstances runs incoming instances through it before
// they reach the classifier.
func WithScaler(scaler model.Transformer) BundleOption {
	return func(b *ModelBundle) {
		b.Scaler = scaler
	}
}

// WithDescription attaches a free-form description to the bundle.
func WithDescription(description string) BundleOption {
	return func(b *ModelBundle) {
		b.Description = description
	}
}

// NewModelBundle wraps a classifier for persistence. The bundle receives
// a fresh identifier and creation timestamp.
func NewModelBundle(clf *cp.TransductiveClassifier, opts ...BundleOption) (*ModelBundle, error) {
	if clf == nil {
		return nil, errors.NewValueError("NewModelBundle", "classifier must not be nil")
	}

	b := &ModelBundle{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Classifier: clf,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Save writes the bundle to path in gob format.
func (b *ModelBundle) Save(path string) error {
	return model.SaveModel(b, path)
}

// LoadModelBundle reads a bundle previously written by Save.
func LoadModelBundle(path string) (*ModelBundle, error) {
	var b ModelBundle
	if err := model.LoadModel(&b, path); err != nil {
		return nil, err
	}
	if b.Classifier == nil {
		return nil, errors.NewPersistenceError("load model from", path,
			errors.New("bundle carries no classifier"))
	}
	return &b, nil
}

// TransformInstances applies the bundled scaler to X. When no scaler
// travels with the bundle, X is returned unchanged.
func (b *ModelBundle) TransformInstances(X mat.Matrix) (mat.Matrix, error) {
	if b.Scaler == nil {
		return X, nil
	}
	return b.Scaler.Transform(X)
}

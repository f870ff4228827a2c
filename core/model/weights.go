package model

import (
	"encoding/json"
	"fmt"
)

// ModelWeights is the serializable weight snapshot of a linear classifier.
// Multiclass models carry one coefficient row and one intercept per class;
// binary models carry a single row.
type ModelWeights struct {
	// ModelType identifies the model kind (LogisticRegression etc.)
	ModelType string `json:"model_type"`

	// Version is used for compatibility checks on import
	Version string `json:"version"`

	// Coefficients holds one weight row per class
	Coefficients [][]float64 `json:"coefficients"`

	// Intercepts holds one intercept per class
	Intercepts []float64 `json:"intercepts"`

	// Classes holds the class labels in ascending order
	Classes []float64 `json:"classes,omitempty"`

	// Features holds optional feature names
	Features []string `json:"features,omitempty"`

	// Hyperparameters holds the model's hyperparameters
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata holds additional training statistics
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted reports whether the snapshot came from a trained model
	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes ModelWeights to indented JSON.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON deserializes ModelWeights from JSON.
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate checks the snapshot for internal consistency.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}

	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}

	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return fmt.Errorf("unfitted model should not have coefficients")
	}

	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return fmt.Errorf("fitted model must have coefficients")
	}

	if len(mw.Coefficients) != len(mw.Intercepts) {
		return fmt.Errorf("coefficient rows (%d) and intercepts (%d) must match",
			len(mw.Coefficients), len(mw.Intercepts))
	}

	return nil
}

// Clone creates a deep copy of ModelWeights.
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([][]float64, len(mw.Coefficients)),
		Intercepts:      make([]float64, len(mw.Intercepts)),
		Classes:         make([]float64, len(mw.Classes)),
		Features:        make([]string, len(mw.Features)),
		Hyperparameters: make(map[string]interface{}),
		Metadata:        make(map[string]interface{}),
	}

	for i, row := range mw.Coefficients {
		clone.Coefficients[i] = make([]float64, len(row))
		copy(clone.Coefficients[i], row)
	}
	copy(clone.Intercepts, mw.Intercepts)
	copy(clone.Classes, mw.Classes)
	copy(clone.Features, mw.Features)

	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}

	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}

// Package preprocessing provides feature scaling transformers. A scaler
// fitted on the training set travels inside a saved model bundle so that
// test and production instances pass through the same transformation.
package preprocessing

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
	gob.Register(&StandardScaler{})
	gob.Register(&MinMaxScaler{})
}

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

// StandardScaler centers each feature at zero mean and scales it to unit
// standard deviation. Near-constant columns keep scale 1 so Transform never
// divides by zero.
type StandardScaler struct {
	state *model.StateManager

	withMean bool
	withStd  bool

	mean_      []float64
	scale_     []float64
	nFeatures_ int
}

// NewStandardScaler creates a StandardScaler. withMean controls whether the
// mean is subtracted, withStd whether the result is divided by the standard
// deviation.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		withMean: withMean,
		withStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler that both centers and
// scales.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-column mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.nFeatures_ = c
	s.mean_ = make([]float64, c)
	s.scale_ = make([]float64, c)

	if s.withMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.mean_[j] = sum / float64(r)
		}
	}

	if s.withStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.mean_[j]
				sumSquares += diff * diff
			}
			s.scale_[j] = math.Sqrt(sumSquares / float64(r))
			if s.scale_[j] < 1e-8 {
				s.scale_[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.scale_[j] = 1.0
		}
	}

	s.state.SetFitted()
	s.state.SetDimensions(c, r)
	return nil
}

// Transform standardizes X with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.nFeatures_ {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.nFeatures_, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.mean_[j])/s.scale_[j])
		}
	}
	return result, nil
}

// FitTransform fits the statistics on X and transforms it in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.nFeatures_ {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.nFeatures_, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.scale_[j]+s.mean_[j])
		}
	}
	return result, nil
}

// Mean returns the fitted per-column means.
func (s *StandardScaler) Mean() []float64 {
	return append([]float64(nil), s.mean_...)
}

// Scale returns the fitted per-column standard deviations.
func (s *StandardScaler) Scale() []float64 {
	return append([]float64(nil), s.scale_...)
}

// IsFitted returns whether the scaler has been fitted.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// Reset returns the scaler to its unfitted state, keeping the configuration.
func (s *StandardScaler) Reset() {
	s.mean_ = nil
	s.scale_ = nil
	s.nFeatures_ = 0
	s.state.Reset()
}

// GetParams returns the scaler configuration
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.withMean,
		"with_std":  s.withStd,
	}
}

func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.withMean, s.withStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.withMean, s.withStd, s.nFeatures_)
}

// standardScalerState is the gob wire form of a StandardScaler.
type standardScalerState struct {
	WithMean  bool
	WithStd   bool
	Mean      []float64
	Scale     []float64
	NFeatures int
	Fitted    bool
}

// GobEncode serializes the configuration and fitted statistics.
func (s *StandardScaler) GobEncode() ([]byte, error) {
	state := standardScalerState{
		WithMean:  s.withMean,
		WithStd:   s.withStd,
		Mean:      s.mean_,
		Scale:     s.scale_,
		NFeatures: s.nFeatures_,
		Fitted:    s.state.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a scaler saved with GobEncode.
func (s *StandardScaler) GobDecode(data []byte) error {
	var state standardScalerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	s.withMean = state.WithMean
	s.withStd = state.WithStd
	s.mean_ = state.Mean
	s.scale_ = state.Scale
	s.nFeatures_ = state.NFeatures
	s.state = model.NewStateManager()
	if state.Fitted {
		s.state.SetFitted()
	}
	return nil
}

// MinMaxScaler rescales each feature linearly into a target range, [0, 1]
// unless configured otherwise. Constant columns keep scale 1.
type MinMaxScaler struct {
	state *model.StateManager

	featureRange [2]float64

	dataMin_   []float64
	dataMax_   []float64
	scale_     []float64
	nFeatures_ int
}

// NewMinMaxScaler creates a MinMaxScaler targeting the given [min, max]
// range.
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		featureRange: featureRange,
	}
}

// NewMinMaxScalerDefault creates a MinMaxScaler targeting [0, 1].
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit computes the per-column minimum and maximum of X.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	m.nFeatures_ = c
	m.dataMin_ = make([]float64, c)
	m.dataMax_ = make([]float64, c)
	m.scale_ = make([]float64, c)

	for j := 0; j < c; j++ {
		lo := X.At(0, j)
		hi := X.At(0, j)
		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < lo {
				lo = val
			}
			if val > hi {
				hi = val
			}
		}
		m.dataMin_[j] = lo
		m.dataMax_[j] = hi

		if dataRange := hi - lo; math.Abs(dataRange) < 1e-8 {
			m.scale_[j] = 1.0
		} else {
			m.scale_[j] = dataRange
		}
	}

	m.state.SetFitted()
	m.state.SetDimensions(c, r)
	return nil
}

// Transform rescales X into the target range with the fitted statistics.
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.nFeatures_ {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.nFeatures_, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	width := m.featureRange[1] - m.featureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scaled := (X.At(i, j)-m.dataMin_[j])/m.scale_[j]*width + m.featureRange[0]
			result.Set(i, j, scaled)
		}
	}
	return result, nil
}

// FitTransform fits the statistics on X and transforms it in one call.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform maps rescaled data back to the original range.
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !m.state.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != m.nFeatures_ {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.nFeatures_, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	width := m.featureRange[1] - m.featureRange[0]
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			original := (X.At(i, j)-m.featureRange[0])/width*m.scale_[j] + m.dataMin_[j]
			result.Set(i, j, original)
		}
	}
	return result, nil
}

// DataMin returns the fitted per-column minima.
func (m *MinMaxScaler) DataMin() []float64 {
	return append([]float64(nil), m.dataMin_...)
}

// DataMax returns the fitted per-column maxima.
func (m *MinMaxScaler) DataMax() []float64 {
	return append([]float64(nil), m.dataMax_...)
}

// IsFitted returns whether the scaler has been fitted.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// Reset returns the scaler to its unfitted state, keeping the configuration.
func (m *MinMaxScaler) Reset() {
	m.dataMin_ = nil
	m.dataMax_ = nil
	m.scale_ = nil
	m.nFeatures_ = 0
	m.state.Reset()
}

// GetParams returns the scaler configuration
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.featureRange,
	}
}

func (m *MinMaxScaler) String() string {
	if !m.state.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.featureRange[0], m.featureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.featureRange[0], m.featureRange[1], m.nFeatures_)
}

// minMaxScalerState is the gob wire form of a MinMaxScaler.
type minMaxScalerState struct {
	FeatureRange [2]float64
	DataMin      []float64
	DataMax      []float64
	Scale        []float64
	NFeatures    int
	Fitted       bool
}

// GobEncode serializes the configuration and fitted statistics.
func (m *MinMaxScaler) GobEncode() ([]byte, error) {
	state := minMaxScalerState{
		FeatureRange: m.featureRange,
		DataMin:      m.dataMin_,
		DataMax:      m.dataMax_,
		Scale:        m.scale_,
		NFeatures:    m.nFeatures_,
		Fitted:       m.state.IsFitted(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a scaler saved with GobEncode.
func (m *MinMaxScaler) GobDecode(data []byte) error {
	var state minMaxScalerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	m.featureRange = state.FeatureRange
	m.dataMin_ = state.DataMin
	m.dataMax_ = state.DataMax
	m.scale_ = state.Scale
	m.nFeatures_ = state.NFeatures
	m.state = model.NewStateManager()
	if state.Fitted {
		m.state.SetFitted()
	}
	return nil
}

package cp

import (
	"math"
	"testing"

	"github.com/farzadhallaji/semiJCP/nc"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// stubSource is a minimal ConformalPredictor with a fixed label order.
type stubSource struct {
	labels []float64
}

func (s *stubSource) Labels() []float64 {
	return append([]float64(nil), s.labels...)
}

func (s *stubSource) Nonconformity() nc.Function { return nil }

func TestClassification_Derivations(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1, 2}}

	c, err := NewClassification(source, []float64{0.9, 0.3, 0.3})
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}

	if got := c.PointPrediction(); got != 0 {
		t.Errorf("PointPrediction() = %g, want 0", got)
	}
	if got := c.Confidence(); math.Abs(got-0.7) > 1e-15 {
		t.Errorf("Confidence() = %g, want 0.7", got)
	}
	if got := c.Credibility(); got != 0.9 {
		t.Errorf("Credibility() = %g, want 0.9", got)
	}
}

func TestClassification_SingleLabelSet(t *testing.T) {
	source := &stubSource{labels: []float64{1}}
	c, err := NewClassification(source, []float64{0.25})
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}

	if got := c.PointPrediction(); got != 1 {
		t.Errorf("PointPrediction() = %g, want 1", got)
	}
	if got := c.Confidence(); got != 1 {
		t.Errorf("Confidence() = %g, want 1 with no runner-up label", got)
	}
	if got := c.Credibility(); got != 0.25 {
		t.Errorf("Credibility() = %g, want 0.25", got)
	}
}

func TestClassification_PredictionSet(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1, 2}}
	c, err := NewClassification(source, []float64{0.9, 0.3, 0.3})
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}

	tests := []struct {
		name         string
		significance float64
		want         []float64
	}{
		{"all p-values at or above the level", 0.2, []float64{0, 1, 2}},
		{"boundary is inclusive", 0.3, []float64{0, 1, 2}},
		{"only the top label survives", 0.31, []float64{0}},
		{"empty set at a high level", 0.95, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.PredictionSet(tt.significance)
			if len(got) != len(tt.want) {
				t.Fatalf("PredictionSet(%g) = %v, want %v", tt.significance, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("PredictionSet(%g) = %v, want %v", tt.significance, got, tt.want)
				}
			}
		})
	}
}

func TestClassification_TiedMaximumHasNoPointPrediction(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1, 2}}
	c, err := NewClassification(source, []float64{0.6, 0.6, 0.1})
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}

	if got := c.PointPrediction(); !math.IsNaN(got) {
		t.Errorf("PointPrediction() = %g, want NaN for a tied maximum", got)
	}
	// the shared maximum is also the second-largest value
	if got := c.Confidence(); math.Abs(got-0.4) > 1e-15 {
		t.Errorf("Confidence() = %g, want 0.4", got)
	}
	if got := c.Credibility(); got != 0.6 {
		t.Errorf("Credibility() = %g, want 0.6", got)
	}
}

func TestClassification_InputValidation(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1}}

	if _, err := NewClassification(nil, []float64{0.5, 0.5}); err == nil {
		t.Error("expected an error for a nil source")
	}

	_, err := NewClassification(source, []float64{0.5})
	if err == nil {
		t.Fatal("expected an error for a short p-value vector")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("error %v is not a DimensionError", err)
	}
}

func TestClassification_CopiesAreIndependent(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1}}
	input := []float64{0.8, 0.2}
	c, err := NewClassification(source, input)
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}

	input[0] = -1
	if got := c.PValues()[0]; got != 0.8 {
		t.Errorf("mutating the input slice changed the stored p-value to %g", got)
	}

	c.PValues()[1] = -1
	if got := c.PValues()[1]; got != 0.2 {
		t.Errorf("mutating a returned slice changed the stored p-value to %g", got)
	}
}

func TestMultiProbabilisticClassification(t *testing.T) {
	source := &stubSource{labels: []float64{0, 1}}

	m, err := NewMultiProbabilisticClassification(source, []float64{0.7, 0.1}, 0.6, 0.9)
	if err != nil {
		t.Fatalf("NewMultiProbabilisticClassification failed: %v", err)
	}
	lower, upper := m.ProbabilityBounds()
	if lower != 0.6 || upper != 0.9 {
		t.Errorf("ProbabilityBounds() = (%g, %g), want (0.6, 0.9)", lower, upper)
	}

	// the extension is discoverable through the base interface
	var p Prediction = m
	mp, ok := p.(MultiProbabilistic)
	if !ok {
		t.Fatal("result does not assert to MultiProbabilistic through Prediction")
	}
	if l, _ := mp.ProbabilityBounds(); l != 0.6 {
		t.Errorf("bounds through the interface = %g, want 0.6", l)
	}

	for _, bounds := range [][2]float64{{0.9, 0.6}, {-0.1, 0.5}, {0.5, 1.1}, {math.NaN(), 0.5}} {
		if _, err := NewMultiProbabilisticClassification(source, []float64{0.7, 0.1}, bounds[0], bounds[1]); err == nil {
			t.Errorf("bounds [%g, %g] were accepted, want an error", bounds[0], bounds[1])
		}
	}
}

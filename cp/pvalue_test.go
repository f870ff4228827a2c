package cp

import (
	"math"
	"testing"
)

func TestPValue(t *testing.T) {
	tests := []struct {
		name        string
		testScore   float64
		calibration []float64
		want        float64
	}{
		{"ties count toward the numerator", 2, []float64{1, 2, 2, 3}, 0.8},
		{"below every calibration score", 1, []float64{5, 6, 7}, 1},
		{"above every calibration score", 9, []float64{1, 2, 3}, 0.25},
		{"equal to the maximum", 3, []float64{1, 2, 3}, 0.5},
		{"equal to the minimum", 1, []float64{1, 2, 3}, 1},
		{"empty calibration sample", 4.2, nil, 1},
		{"single calibration score above", 0.5, []float64{1}, 1},
		{"single calibration score below", 2, []float64{1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PValue(tt.testScore, tt.calibration)
			if math.Abs(got-tt.want) > 1e-15 {
				t.Errorf("PValue(%g, %v) = %g, want %g", tt.testScore, tt.calibration, got, tt.want)
			}
		})
	}
}

func TestPValue_RangeNeverLeavesUnitInterval(t *testing.T) {
	calibration := []float64{-3, -1, 0, 0, 2, 5, 5, 8}
	for _, score := range []float64{-10, -3, -0.5, 0, 1, 5, 8, 100} {
		p := PValue(score, calibration)
		if p <= 0 || p > 1 {
			t.Errorf("PValue(%g, ...) = %g, want a value in (0, 1]", score, p)
		}
	}
}

package preprocessing

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// TestStandardScaler_FitTransform tests centering and scaling
func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit and transform: %v", err)
	}

	// Each column has mean 0 and standard deviation 1
	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		mean := sum / float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("Column %d mean should be 0, got %v", j, mean)
		}

		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := scaled.At(i, j) - mean
			sumSquares += diff * diff
		}
		std := math.Sqrt(sumSquares / float64(r))
		if math.Abs(std-1.0) > 1e-10 {
			t.Errorf("Column %d standard deviation should be 1, got %v", j, std)
		}
	}

	means := scaler.Mean()
	if math.Abs(means[0]-2.5) > 1e-10 || math.Abs(means[1]-25) > 1e-10 {
		t.Errorf("Expected means [2.5 25], got %v", means)
	}
}

// TestStandardScaler_InverseTransform tests the round trip back to the
// original scale
func TestStandardScaler_InverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.5, -2,
		2.5, 0,
		3.5, 2,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit and transform: %v", err)
	}

	restored, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("Failed to inverse transform: %v", err)
	}

	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(restored.At(i, j)-X.At(i, j)) > 1e-10 {
				t.Errorf("Element (%d, %d) not restored: expected %v, got %v",
					i, j, X.At(i, j), restored.At(i, j))
			}
		}
	}
}

// TestStandardScaler_ConstantColumn tests that a constant feature does not
// divide by zero
func TestStandardScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		5, 1,
		5, 2,
		5, 3,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit and transform: %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := scaled.At(i, 0); got != 0 {
			t.Errorf("Constant column should center to 0, got %v at row %d", got, i)
		}
	}
}

// TestStandardScaler_NoCentering tests the withMean=false configuration
func TestStandardScaler_NoCentering(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{
		3,
		5,
	})

	scaler := NewStandardScaler(false, true)
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	if got := scaler.Mean()[0]; got != 0 {
		t.Errorf("Mean should stay 0 without centering, got %v", got)
	}
	// Scale is sqrt((9+25)/2) around zero
	want := math.Sqrt(17)
	if got := scaler.Scale()[0]; math.Abs(got-want) > 1e-10 {
		t.Errorf("Expected scale %v, got %v", want, got)
	}
}

// TestStandardScaler_Validation tests dimension and state errors
func TestStandardScaler_Validation(t *testing.T) {
	scaler := NewStandardScalerDefault()

	var notFitted *errors.NotFittedError
	if _, err := scaler.Transform(mat.NewDense(1, 2, nil)); !errors.As(err, &notFitted) {
		t.Errorf("Expected NotFittedError before fitting, got %v", err)
	}

	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	var dimErr *errors.DimensionError
	if _, err := scaler.Transform(mat.NewDense(1, 3, nil)); !errors.As(err, &dimErr) {
		t.Errorf("Expected DimensionError for the wrong feature count, got %v", err)
	}
}

// TestStandardScaler_GobRoundTrip tests that a fitted scaler survives
// serialization inside a model bundle
func TestStandardScaler_GobRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 4,
		2, 5,
		3, 6,
	})

	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(scaler); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	var decoded StandardScaler
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if !decoded.IsFitted() {
		t.Fatal("Decoded scaler should be fitted")
	}

	want, _ := scaler.Transform(X)
	got, err := decoded.Transform(X)
	if err != nil {
		t.Fatalf("Failed to transform with the decoded scaler: %v", err)
	}
	if !mat.Equal(want, got) {
		t.Error("Decoded scaler transforms differently")
	}
}

// TestMinMaxScaler_FitTransform tests rescaling into the default range
func TestMinMaxScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 100,
		5, 150,
		10, 200,
	})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit and transform: %v", err)
	}

	// Minima map to 0, maxima to 1, midpoints in between
	expected := [][]float64{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
	}
	for i := range expected {
		for j := range expected[i] {
			if math.Abs(scaled.At(i, j)-expected[i][j]) > 1e-10 {
				t.Errorf("Element (%d, %d): expected %v, got %v",
					i, j, expected[i][j], scaled.At(i, j))
			}
		}
	}
}

// TestMinMaxScaler_CustomRange tests a non-default target range with its
// inverse
func TestMinMaxScaler_CustomRange(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{
		10,
		30,
	})

	scaler := NewMinMaxScaler([2]float64{-1, 1})
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("Failed to fit and transform: %v", err)
	}

	if scaled.At(0, 0) != -1 || scaled.At(1, 0) != 1 {
		t.Errorf("Expected endpoints [-1 1], got [%v %v]", scaled.At(0, 0), scaled.At(1, 0))
	}

	restored, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("Failed to inverse transform: %v", err)
	}
	if math.Abs(restored.At(0, 0)-10) > 1e-10 || math.Abs(restored.At(1, 0)-30) > 1e-10 {
		t.Errorf("Expected restored values [10 30], got [%v %v]",
			restored.At(0, 0), restored.At(1, 0))
	}
}

// TestMinMaxScaler_GobRoundTrip tests serialization of a fitted scaler
func TestMinMaxScaler_GobRoundTrip(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{
		2,
		4,
		8,
	})

	scaler := NewMinMaxScalerDefault()
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(scaler); err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	var decoded MinMaxScaler
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	want, _ := scaler.Transform(X)
	got, err := decoded.Transform(X)
	if err != nil {
		t.Fatalf("Failed to transform with the decoded scaler: %v", err)
	}
	if !mat.Equal(want, got) {
		t.Error("Decoded scaler transforms differently")
	}
}

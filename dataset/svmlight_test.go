package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// TestRead_ParsesSparseLines tests parsing labels, sparse features, comments
// and blank lines
func TestRead_ParsesSparseLines(t *testing.T) {
	input := `# a full-line comment
1 1:0.5 3:2.5
-1 2:1e-2   # trailing comment

0.5 1:-3
`
	set, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}

	if set.NumInstances() != 3 {
		t.Fatalf("Expected 3 instances, got %d", set.NumInstances())
	}
	if set.NumFeatures() != 3 {
		t.Fatalf("Expected 3 features, got %d", set.NumFeatures())
	}

	wantY := []float64{1, -1, 0.5}
	for i, want := range wantY {
		if set.Y[i] != want {
			t.Errorf("Y[%d]: expected %v, got %v", i, want, set.Y[i])
		}
	}

	wantX := mat.NewDense(3, 3, []float64{
		0.5, 0, 2.5,
		0, 0.01, 0,
		-3, 0, 0,
	})
	if !mat.Equal(set.X, wantX) {
		t.Errorf("Unexpected matrix:\n got %v\nwant %v",
			mat.Formatted(set.X), mat.Formatted(wantX))
	}
}

// TestRead_WithColumns tests pinning the matrix width to a model's attribute
// count
func TestRead_WithColumns(t *testing.T) {
	input := "1 1:1\n0 2:2\n"

	set, err := Read(strings.NewReader(input), WithColumns(5))
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if set.NumFeatures() != 5 {
		t.Errorf("Expected 5 features, got %d", set.NumFeatures())
	}

	// An index past the fixed width is rejected
	var dimErr *errors.DimensionError
	_, err = Read(strings.NewReader("1 7:1\n"), WithColumns(5))
	if !errors.As(err, &dimErr) {
		t.Errorf("Expected DimensionError for an index past the width, got %v", err)
	}
}

// TestRead_MalformedInput tests rejection with the offending line reported
func TestRead_MalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad label", "abc 1:2\n"},
		{"missing colon", "1 12\n"},
		{"empty index", "1 :2\n"},
		{"zero index", "1 0:2\n"},
		{"negative index", "1 -1:2\n"},
		{"bad value", "1 1:x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var valueErr *errors.ValueError
			_, err := Read(strings.NewReader(tt.input))
			if !errors.As(err, &valueErr) {
				t.Errorf("Expected ValueError, got %v", err)
			}
		})
	}
}

// TestRead_Empty tests that a file without instances is rejected
func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader("# only a comment\n\n"))
	if !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData, got %v", err)
	}
}

// TestWrite_OmitsZeros tests the emitted text form
func TestWrite_OmitsZeros(t *testing.T) {
	set := &Set{
		X: mat.NewDense(2, 3, []float64{
			0.5, 0, 2,
			0, 0, 0,
		}),
		Y: []float64{1, -1},
	}

	var buf bytes.Buffer
	if err := Write(&buf, set); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	want := "1 1:0.5 3:2\n-1\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n got %q\nwant %q", buf.String(), want)
	}
}

// TestWrite_ReadRoundTrip tests that writing and re-reading preserves the
// data
func TestWrite_ReadRoundTrip(t *testing.T) {
	set := &Set{
		X: mat.NewDense(3, 4, []float64{
			1.25, 0, -2, 0,
			0, 1e-3, 0, 4,
			7, 0, 0, 0,
		}),
		Y: []float64{0, 1, 2},
	}

	var buf bytes.Buffer
	if err := Write(&buf, set); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	got, err := Read(&buf, WithColumns(4))
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !mat.Equal(got.X, set.X) {
		t.Error("Round trip changed the matrix")
	}
	for i := range set.Y {
		if got.Y[i] != set.Y[i] {
			t.Errorf("Y[%d]: expected %v, got %v", i, set.Y[i], got.Y[i])
		}
	}
}

// TestReadFile_WriteFile tests the file-based variants
func TestReadFile_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.svm")

	set := &Set{
		X: mat.NewDense(2, 2, []float64{
			1, 2,
			3, 4,
		}),
		Y: []float64{0, 1},
	}
	if err := WriteFile(path, set); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !mat.Equal(got.X, set.X) {
		t.Error("File round trip changed the matrix")
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.svm")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

package cp

import (
	"math"
	"testing"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func evaluationFixture(t *testing.T) *Evaluation {
	t.Helper()
	e, err := NewEvaluation([]float64{0, 1, 2}, 0.2)
	if err != nil {
		t.Fatalf("NewEvaluation failed: %v", err)
	}

	source := &stubSource{labels: []float64{0, 1, 2}}
	add := func(pValues []float64, trueLabel float64) {
		t.Helper()
		c, err := NewClassification(source, pValues)
		if err != nil {
			t.Fatalf("NewClassification failed: %v", err)
		}
		if err := e.Add(c, trueLabel); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	add([]float64{0.9, 0.3, 0.1}, 0)   // set {0, 1}, correct
	add([]float64{0.9, 0.3, 0.1}, 2)   // set {0, 1}, wrong
	add([]float64{0.5, 0.1, 0.05}, 0)  // set {0}, correct and decisive
	add([]float64{0.1, 0.05, 0.03}, 1) // empty set, wrong
	return e
}

func TestEvaluation_Aggregates(t *testing.T) {
	e := evaluationFixture(t)

	if got := e.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}
	if got := e.Accuracy(); got != 0.5 {
		t.Errorf("Accuracy() = %g, want 0.5", got)
	}
	if got := e.SingleLabelAccuracy(); got != 0.25 {
		t.Errorf("SingleLabelAccuracy() = %g, want 0.25", got)
	}
	if got := e.OneC(); got != 0.25 {
		t.Errorf("OneC() = %g, want 0.25", got)
	}
	if got := e.AvgC(); math.Abs(got-1.25) > 1e-15 {
		t.Errorf("AvgC() = %g, want 1.25", got)
	}
}

func TestEvaluation_SizeHistogram(t *testing.T) {
	e := evaluationFixture(t)

	want := []int{1, 1, 2, 0}
	got := e.SizeHistogram()
	if len(got) != len(want) {
		t.Fatalf("SizeHistogram() has %d buckets, want %d", len(got), len(want))
	}
	for s := range want {
		if got[s] != want[s] {
			t.Errorf("SizeHistogram()[%d] = %d, want %d", s, got[s], want[s])
		}
	}

	if got := e.AccuracyAtSize(2); got != 0.5 {
		t.Errorf("AccuracyAtSize(2) = %g, want 0.5", got)
	}
	if got := e.AccuracyAtSize(1); got != 1 {
		t.Errorf("AccuracyAtSize(1) = %g, want 1", got)
	}
}

func TestEvaluation_PerClassBreakdown(t *testing.T) {
	e := evaluationFixture(t)

	wantHist := []int{2, 1, 1}
	got := e.ClassHistogram()
	for c := range wantHist {
		if got[c] != wantHist[c] {
			t.Errorf("ClassHistogram()[%d] = %d, want %d", c, got[c], wantHist[c])
		}
	}

	if got := e.AccuracyForClass(0); got != 1 {
		t.Errorf("AccuracyForClass(0) = %g, want 1", got)
	}
	if got := e.AccuracyForClass(1); got != 0 {
		t.Errorf("AccuracyForClass(1) = %g, want 0", got)
	}

	wantSizes := []int{0, 1, 1, 0}
	gotSizes := e.ClassSizeHistogram(0)
	for s := range wantSizes {
		if gotSizes[s] != wantSizes[s] {
			t.Errorf("ClassSizeHistogram(0)[%d] = %d, want %d", s, gotSizes[s], wantSizes[s])
		}
	}
	if got := e.AccuracyForClassAtSize(0, 2); got != 1 {
		t.Errorf("AccuracyForClassAtSize(0, 2) = %g, want 1", got)
	}
}

func TestEvaluation_UndefinedMetricWarns(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(nil)

	e := evaluationFixture(t)
	if got := e.AccuracyAtSize(3); got != 0 {
		t.Errorf("AccuracyAtSize(3) = %g, want 0 with no size-3 predictions", got)
	}
	var undefined *errors.UndefinedMetricWarning
	if !errors.As(warned, &undefined) {
		t.Errorf("warning %v is not an UndefinedMetricWarning", warned)
	}
}

func TestEvaluation_Validation(t *testing.T) {
	if _, err := NewEvaluation(nil, 0.2); !errors.Is(err, errors.ErrNoLabels) {
		t.Errorf("empty label set: got %v, want ErrNoLabels", err)
	}
	if _, err := NewEvaluation([]float64{0, 0}, 0.2); !errors.Is(err, errors.ErrDuplicateLabel) {
		t.Errorf("duplicate labels: got %v, want ErrDuplicateLabel", err)
	}
	for _, sig := range []float64{0, 1, -0.1, 1.5} {
		if _, err := NewEvaluation([]float64{0, 1}, sig); err == nil {
			t.Errorf("significance %g was accepted, want an error", sig)
		}
	}

	e, err := NewEvaluation([]float64{0, 1}, 0.1)
	if err != nil {
		t.Fatalf("NewEvaluation failed: %v", err)
	}
	if got := e.Accuracy(); got != 0 {
		t.Errorf("Accuracy() = %g with no observations, want 0", got)
	}

	source := &stubSource{labels: []float64{0, 1}}
	c, err := NewClassification(source, []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("NewClassification failed: %v", err)
	}
	if err := e.Add(c, 9); err == nil {
		t.Error("expected an error for a true label outside the set")
	}
}

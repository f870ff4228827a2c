package nc

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// TestFactory_Strategies tests the enumeration order backing NewByType
func TestFactory_Strategies(t *testing.T) {
	var f Factory

	got := f.Strategies()
	want := []string{
		"hinge loss nonconformity function",
		"margin distance nonconformity function",
		"attribute average nonconformity function",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("strategy %d: expected %q, got %q", i, w, got[i])
		}
	}
}

// TestFactory_New_HingeWrapsPlainClassifier tests the transparent
// pseudo-probability substitution
func TestFactory_New_HingeWrapsPlainClassifier(t *testing.T) {
	clf := &stubPointClassifier{
		classes: []float64{0, 1},
		preds:   mat.NewDense(2, 1, []float64{1, 0}),
		fitted:  true,
	}

	var f Factory
	fn, err := f.New(StrategyHingeLoss, []float64{0, 1}, clf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// With pseudo-probabilities the hinge loss is a 0/1 misclassification
	// indicator.
	scores, err := fn.Scores(mat.NewDense(2, 2, nil), []float64{1, 1})
	if err != nil {
		t.Fatalf("Scores failed: %v", err)
	}
	if scores[0] != 0 {
		t.Errorf("predicted label should score 0, got %v", scores[0])
	}
	if scores[1] != 1 {
		t.Errorf("non-predicted label should score 1, got %v", scores[1])
	}
}

// TestFactory_New_MarginRequiresCapability tests the construction-time
// capability check
func TestFactory_New_MarginRequiresCapability(t *testing.T) {
	clf := &stubPointClassifier{classes: []float64{0, 1}, preds: mat.NewDense(1, 1, nil)}

	var f Factory
	_, err := f.New(StrategyMarginDistance, []float64{0, 1}, clf)

	var cfgErr *errors.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
	if cfgErr.Component != StrategyMarginDistance {
		t.Errorf("error should name the strategy, got %q", cfgErr.Component)
	}
}

// TestFactory_New_AttributeAverageNeedsNoClassifier tests the model-free path
func TestFactory_New_AttributeAverageNeedsNoClassifier(t *testing.T) {
	var f Factory

	fn, err := f.New(StrategyAttributeAverage, []float64{0, 1}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := fn.(*AttributeAverage); !ok {
		t.Errorf("expected an *AttributeAverage, got %T", fn)
	}
}

// TestFactory_New_UnknownStrategy tests the unsupported-strategy error
func TestFactory_New_UnknownStrategy(t *testing.T) {
	var f Factory

	_, err := f.New("no such strategy", []float64{0, 1}, nil)
	var unsupported *errors.UnsupportedStrategyError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected an UnsupportedStrategyError, got %v", err)
	}
	if !strings.Contains(err.Error(), `"no such strategy"`) {
		t.Errorf("error should quote the strategy, got %q", err.Error())
	}
}

// TestFactory_NewByType tests the numeric selector mapping
func TestFactory_NewByType(t *testing.T) {
	var f Factory

	fn, err := f.NewByType(2, []float64{0, 1}, nil)
	if err != nil {
		t.Fatalf("NewByType(2) failed: %v", err)
	}
	if _, ok := fn.(*AttributeAverage); !ok {
		t.Errorf("selector 2 should build an *AttributeAverage, got %T", fn)
	}

	for _, typ := range []int{-1, 3} {
		if _, err := f.NewByType(typ, []float64{0, 1}, nil); err == nil {
			t.Errorf("selector %d should be rejected", typ)
		}
	}
}

// TestFactory_New_NilClassifierForHinge tests the nil check
func TestFactory_New_NilClassifierForHinge(t *testing.T) {
	var f Factory

	if _, err := f.New(StrategyHingeLoss, []float64{0, 1}, nil); err == nil {
		t.Error("expected an error for a nil classifier")
	}
}

package nc

import (
	"strconv"

	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// Strategy names accepted by the Factory. Their order defines the numeric
// selectors accepted by NewByType.
const (
	StrategyHingeLoss        = "hinge loss nonconformity function"
	StrategyMarginDistance   = "margin distance nonconformity function"
	StrategyAttributeAverage = "attribute average nonconformity function"
)

// Factory constructs nonconformity functions by strategy name. The zero
// value is ready to use.
type Factory struct{}

// Strategies returns the available strategy names in selector order, for
// CLI and configuration enumeration.
func (Factory) Strategies() []string {
	return []string{StrategyHingeLoss, StrategyMarginDistance, StrategyAttributeAverage}
}

// New constructs the named nonconformity function over the label set and
// classifier. Capability requirements are checked here so that a mismatched
// classifier fails at construction rather than at scoring time: a classifier
// without probability output is transparently wrapped for the hinge loss,
// while the margin distance strategy rejects classifiers without
// decision-boundary distances. The attribute average strategy uses no
// classifier and accepts nil.
func (f Factory) New(strategy string, labels []float64, classifier model.Classifier) (Function, error) {
	switch strategy {
	case StrategyHingeLoss:
		if classifier == nil {
			return nil, errors.NewConfigurationError(StrategyHingeLoss, "classifier must not be nil")
		}
		prob, ok := classifier.(model.ProbabilityClassifier)
		if !ok {
			adapter, err := NewClassProbabilityAdapter(classifier, labels)
			if err != nil {
				return nil, err
			}
			prob = adapter
		}
		return NewHingeLoss(labels, prob)

	case StrategyMarginDistance:
		if classifier == nil {
			return nil, errors.NewConfigurationError(StrategyMarginDistance, "classifier must not be nil")
		}
		margin, ok := classifier.(model.MarginClassifier)
		if !ok {
			return nil, errors.NewConfigurationError(StrategyMarginDistance,
				"classifier does not expose decision-boundary distances")
		}
		return NewMarginDistance(labels, margin)

	case StrategyAttributeAverage:
		return NewAttributeAverage(labels)

	default:
		return nil, errors.NewUnsupportedStrategyError(strategy)
	}
}

// NewByType is New with the numeric selector used in configuration files:
// the index of the strategy in Strategies().
func (f Factory) NewByType(typ int, labels []float64, classifier model.Classifier) (Function, error) {
	names := f.Strategies()
	if typ < 0 || typ >= len(names) {
		return nil, errors.NewUnsupportedStrategyError(strconv.Itoa(typ))
	}
	return f.New(names[typ], labels, classifier)
}

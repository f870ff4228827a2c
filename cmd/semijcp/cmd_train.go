package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/cli"
	"github.com/farzadhallaji/semiJCP/core/model"
	"github.com/farzadhallaji/semiJCP/cp"
	"github.com/farzadhallaji/semiJCP/dataset"
	"github.com/farzadhallaji/semiJCP/linear"
	"github.com/farzadhallaji/semiJCP/nc"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
	"github.com/farzadhallaji/semiJCP/preprocessing"
)

func runTrain(_ *cobra.Command, _ []string) error {
	start := time.Now()
	fmt.Printf("Loading the data set '%s'.\n", dataPath)
	set, err := dataset.ReadFile(dataPath)
	if err != nil {
		return err
	}

	var bundleOpts []cli.BundleOption
	if description != "" {
		bundleOpts = append(bundleOpts, cli.WithDescription(description))
	}

	X := mat.Matrix(set.X)
	if scaleData {
		scaler := preprocessing.NewStandardScalerDefault()
		scaled, err := scaler.FitTransform(set.X)
		if err != nil {
			return err
		}
		X = scaled
		bundleOpts = append(bundleOpts, cli.WithScaler(scaler))
	}

	labels := distinctLabels(set.Y)
	clf, err := newClassifier(classifierName, labels)
	if err != nil {
		return err
	}
	ncFunc, err := newNonconformity(ncFuncName, labels, clf)
	if err != nil {
		return err
	}

	opts := []cp.Option{
		cp.WithLabelConditional(labelConditional),
		cp.WithParallel(!sequential),
	}
	if leafSize > 0 {
		opts = append(opts, cp.WithLeafSize(leafSize))
	}
	tcc, err := cp.NewTransductiveClassifier(ncFunc, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Training on %d instances with %d attributes and %d labels.\n",
		set.NumInstances(), set.NumFeatures(), len(labels))
	if err := tcc.Fit(X, set.Y); err != nil {
		return err
	}

	bundle, err := cli.NewModelBundle(tcc, bundleOpts...)
	if err != nil {
		return err
	}
	if err := bundle.Save(modelPath); err != nil {
		return err
	}
	fmt.Printf("Saved the model '%s'.\nDuration %g sec.\n", modelPath, time.Since(start).Seconds())
	return nil
}

// newNonconformity resolves a selector given on the command line. Both
// short aliases and the full strategy names are accepted, and a numeric
// selector picks by type for compatibility with configuration files.
func newNonconformity(selector string, labels []float64, clf model.Classifier) (nc.Function, error) {
	factory := nc.Factory{}
	if n, err := strconv.Atoi(selector); err == nil {
		return factory.NewByType(n, labels, clf)
	}
	switch selector {
	case "hinge":
		return factory.New(nc.StrategyHingeLoss, labels, clf)
	case "margin":
		return factory.New(nc.StrategyMarginDistance, labels, clf)
	case "average":
		return factory.New(nc.StrategyAttributeAverage, labels, clf)
	default:
		return factory.New(selector, labels, clf)
	}
}

func newClassifier(name string, labels []float64) (model.Classifier, error) {
	switch name {
	case "logistic":
		return linear.NewLogisticRegression(linear.WithLRClasses(labels)), nil
	case "passive-aggressive":
		return linear.NewPassiveAggressiveClassifier(linear.WithPAClasses(labels)), nil
	case "", "none":
		return nil, nil
	default:
		return nil, errors.NewConfigurationError("classifier",
			fmt.Sprintf("unknown classifier %q (want logistic, passive-aggressive or none)", name))
	}
}

func distinctLabels(y []float64) []float64 {
	seen := make(map[float64]struct{}, len(y))
	labels := make([]float64, 0, 4)
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			labels = append(labels, v)
		}
	}
	sort.Float64s(labels)
	return labels
}

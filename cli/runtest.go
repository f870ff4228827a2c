package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/cp"
	"github.com/farzadhallaji/semiJCP/cp/measures"
	"github.com/farzadhallaji/semiJCP/dataset"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
	"github.com/farzadhallaji/semiJCP/pkg/log"
)

// TestConfig controls a batch evaluation pass. The output writers are
// optional; a nil writer disables the corresponding stream.
type TestConfig struct {
	// Significance is the level prediction sets are built at, in (0, 1).
	Significance float64

	// Debug extends the JSON results with the true label and, when the
	// nonconformity function is directly callable, per-label scores.
	Debug bool

	// JSONOutput receives all results as one JSON array.
	JSONOutput io.Writer

	// PValuesOutput receives one line per instance with the p-value of
	// every label in label order.
	PValuesOutput io.Writer

	// LabelsOutput receives one line per instance with the prediction
	// set at the configured significance level.
	LabelsOutput io.Writer
}

// TestReport holds the evaluation counters and the efficiency measure
// aggregates of one test pass.
type TestReport struct {
	Evaluation *cp.Evaluation
	Measures   *measures.Report
}

// RunTest evaluates clf on a labelled test set. Every instance is
// classified, written to the configured output streams and recorded in
// the evaluation counters and measure aggregates. True labels must come
// from the classifier's label set.
//
// A CalibrationResolutionWarning is raised when the calibration set is
// too small to resolve the configured significance level.
func RunTest(clf *cp.TransductiveClassifier, set *dataset.Set, cfg TestConfig) (*TestReport, error) {
	if clf == nil {
		return nil, errors.NewValueError("cli.RunTest", "classifier must not be nil")
	}
	if set == nil || set.X == nil || set.NumInstances() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "cli.RunTest")
	}
	if rows, _ := set.X.Dims(); rows != len(set.Y) {
		return nil, errors.NewDimensionError("cli.RunTest", rows, len(set.Y), 0)
	}
	if !clf.IsFitted() {
		return nil, errors.NewNotFittedError("TransductiveClassifier", "RunTest")
	}

	eval, err := cp.NewEvaluation(clf.Labels(), cfg.Significance)
	if err != nil {
		return nil, err
	}
	report, err := measures.NewReport(cfg.Significance)
	if err != nil {
		return nil, err
	}

	if n := clf.CalibrationSize(); 1.0/float64(n+1) > cfg.Significance {
		errors.Warn(errors.NewCalibrationResolutionWarning(n, cfg.Significance))
	}

	start := time.Now()
	pValues, err := clf.PredictPValuesBatch(set.X)
	if err != nil {
		return nil, err
	}

	var rw *ResultWriter
	if cfg.JSONOutput != nil {
		rw, err = NewResultWriter(cfg.JSONOutput)
		if err != nil {
			return nil, err
		}
	}

	n, _ := pValues.Dims()
	for i := 0; i < n; i++ {
		c, err := cp.NewClassification(clf, mat.Row(nil, i, pValues))
		if err != nil {
			return nil, err
		}

		if cfg.PValuesOutput != nil {
			if err := writeFloatRow(cfg.PValuesOutput, c.PValues(), "cli: write p-values"); err != nil {
				return nil, err
			}
		}
		if cfg.LabelsOutput != nil {
			row := c.PredictionSet(cfg.Significance)
			if err := writeFloatRow(cfg.LabelsOutput, row, "cli: write labels"); err != nil {
				return nil, err
			}
		}
		if rw != nil {
			if cfg.Debug {
				err = rw.WriteDebug(c, set.X.RowView(i), set.Y[i])
			} else {
				err = rw.Write(c)
			}
			if err != nil {
				return nil, err
			}
		}

		if err := eval.Add(c, set.Y[i]); err != nil {
			return nil, err
		}
		if err := report.Add(c, set.Y[i]); err != nil {
			return nil, err
		}
	}
	if rw != nil {
		if err := rw.Close(); err != nil {
			return nil, err
		}
	}

	logger := log.GetLoggerWithName("cli.test")
	logger.Debug("test pass complete",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, n,
		log.ClassesKey, len(eval.Labels()),
		log.SignificanceKey, cfg.Significance,
		log.AccuracyKey, eval.Accuracy(),
		log.AvgSetSizeKey, eval.AvgC(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &TestReport{Evaluation: eval, Measures: report}, nil
}

// RunTestFile loads a model bundle and a svmlight test set from disk and
// evaluates the model on it. The set is forced to the model's attribute
// count and passed through the bundled scaler when one is present.
func RunTestFile(modelPath, dataPath string, cfg TestConfig) (*TestReport, error) {
	bundle, err := LoadModelBundle(modelPath)
	if err != nil {
		return nil, err
	}
	clf := bundle.Classifier

	set, err := dataset.ReadFile(dataPath, dataset.WithColumns(clf.AttributeCount()))
	if err != nil {
		return nil, err
	}
	X, err := bundle.TransformInstances(set.X)
	if err != nil {
		return nil, err
	}
	if d, ok := X.(*mat.Dense); ok {
		set.X = d
	} else {
		set.X = mat.DenseCopyOf(X)
	}

	log.GetLoggerWithName("cli.test").Debug("test set loaded",
		log.SamplesKey, set.NumInstances(),
		log.FeaturesKey, set.NumFeatures(),
		log.CalibrationSizeKey, clf.CalibrationSize(),
	)
	return RunTest(clf, set, cfg)
}

func writeFloatRow(w io.Writer, values []float64, wrapMsg string) error {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(formatFloat(v))
		b.WriteByte(' ')
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// String renders the evaluation counters and measure aggregates as a
// human-readable multi-line summary. Size and class buckets that stayed
// empty are left out.
func (r *TestReport) String() string {
	e := r.Evaluation
	var b strings.Builder

	fmt.Fprintf(&b, "Accuracy %g, single label prediction accuracy %g\n",
		e.Accuracy(), e.SingleLabelAccuracy())
	fmt.Fprintf(&b, "OneC efficiency (fraction of predictions with a single label) %g, "+
		"AvgC efficiency (average label set size) %g\n", e.OneC(), e.AvgC())

	b.WriteString("Per prediction set size:\n")
	for size, count := range e.SizeHistogram() {
		if count == 0 {
			continue
		}
		fmt.Fprintf(&b, "  #predictions with %d labels: %d. Accuracy: %g\n",
			size, count, e.AccuracyAtSize(size))
	}

	b.WriteString("Per true class:\n")
	labels := e.Labels()
	classHist := e.ClassHistogram()
	for i, label := range labels {
		if classHist[i] == 0 {
			continue
		}
		fmt.Fprintf(&b, "  #instances with true label %g: %d. Accuracy: %g\n",
			label, classHist[i], e.AccuracyForClass(i))
		for size, count := range e.ClassSizeHistogram(i) {
			if count == 0 {
				continue
			}
			fmt.Fprintf(&b, "    #predictions with %d labels: %d. Accuracy: %g\n",
				size, count, e.AccuracyForClassAtSize(i, size))
		}
	}

	if m := r.Measures; m != nil {
		if len(m.Observed) > 0 {
			fmt.Fprintf(&b, "Observed measures over %d instances:\n",
				m.Observed[0].NumberOfObservations())
			for _, agg := range m.Observed {
				fmt.Fprintf(&b, "  %s\n", agg)
			}
		}
		if len(m.Prior) > 0 {
			fmt.Fprintf(&b, "Prior efficiency measures over %d instances:\n",
				m.Prior[0].NumberOfObservations())
			for _, agg := range m.Prior {
				fmt.Fprintf(&b, "  %s\n", agg)
			}
		}
	}
	return b.String()
}

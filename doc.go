// Package semijcp provides transductive conformal prediction for Go,
// turning point classifiers into set-valued predictors with a
// finite-sample validity guarantee.
//
// A conformal classifier answers "which labels are plausible for this
// instance?" instead of "which single label is most likely?". At a
// significance level epsilon the returned label set contains the true
// label with probability at least 1-epsilon, for any exchangeable data
// distribution. The transductive variant recomputes nonconformity
// scores against the full training set for every candidate label, so no
// data has to be held out for calibration.
//
// # Quick Start
//
// Fit a classifier and read off a prediction set:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "gonum.org/v1/gonum/mat"
//
//	    "github.com/farzadhallaji/semiJCP/cp"
//	    "github.com/farzadhallaji/semiJCP/linear"
//	    "github.com/farzadhallaji/semiJCP/nc"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 2, []float64{
//	        0, 0, 0, 1, 1, 0,
//	        4, 4, 4, 5, 5, 4,
//	    })
//	    y := []float64{0, 0, 0, 1, 1, 1}
//
//	    ncFunc, err := nc.NewHingeLoss([]float64{0, 1},
//	        linear.NewLogisticRegression(linear.WithLRClasses([]float64{0, 1})))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    clf, err := cp.NewTransductiveClassifier(ncFunc)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := clf.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    c, err := clf.Predict(mat.NewVecDense(2, []float64{0.5, 0.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("prediction set:", c.PredictionSet(0.1))
//	}
//
// # Packages
//
//   - cp: transductive conformal classifier, classification results and
//     the evaluation harness
//   - cp/measures: observed and prior efficiency measures
//   - nc: nonconformity functions (hinge loss, margin distance,
//     attribute average) and their factory
//   - linear: online linear classifiers used as underlying models
//   - preprocessing: attribute scaling
//   - dataset: sparse svmlight data sets
//   - cli: model bundles, JSON instance and result streams, test runs
//   - pkg/errors: typed errors and the warning system
//   - pkg/log: structured logging setup
//
// The semijcp command under cmd/semijcp exposes training, evaluation and
// streaming prediction on the command line.
package semijcp

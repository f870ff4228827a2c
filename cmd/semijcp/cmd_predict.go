package main

import (
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/farzadhallaji/semiJCP/cli"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func runPredict(_ *cobra.Command, _ []string) error {
	bundle, err := cli.LoadModelBundle(modelPath)
	if err != nil {
		return err
	}
	clf := bundle.Classifier
	if !clf.IsFitted() {
		return errors.NewNotFittedError("TransductiveClassifier", "Predict")
	}

	in := io.Reader(os.Stdin)
	if inputPath != "" && inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return errors.Wrapf(err, "semijcp: open %q", inputPath)
		}
		defer func() { _ = f.Close() }()
		in = f
	}
	out := io.Writer(os.Stdout)
	if outputPath != "" && outputPath != "-" {
		f, err := os.Create(outputPath)
		if err != nil {
			return errors.Wrapf(err, "semijcp: create %q", outputPath)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	reader := cli.NewInstanceReader(in, clf.AttributeCount())
	writer, err := cli.NewResultWriter(out)
	if err != nil {
		return err
	}
	for {
		features, target, hasTarget, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		X, err := bundle.TransformInstances(mat.NewDense(1, len(features), features))
		if err != nil {
			return err
		}
		instance := rowVector(X)

		c, err := clf.Predict(instance)
		if err != nil {
			return err
		}
		if debug {
			trueLabel := math.NaN()
			if hasTarget {
				trueLabel = target
			}
			err = writer.WriteDebug(c, instance, trueLabel)
		} else {
			err = writer.Write(c)
		}
		if err != nil {
			return err
		}
	}
	return writer.Close()
}

func rowVector(X mat.Matrix) mat.Vector {
	if d, ok := X.(*mat.Dense); ok {
		return d.RowView(0)
	}
	return mat.DenseCopyOf(X).RowView(0)
}

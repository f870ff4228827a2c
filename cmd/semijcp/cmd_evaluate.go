package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/farzadhallaji/semiJCP/cli"
	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func runTestCommand(_ *cobra.Command, _ []string) error {
	testCfg := cli.TestConfig{Significance: significance, Debug: debug}

	closers := make([]func() error, 0, 3)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	open := func(path string) (io.Writer, error) {
		w, closeFn, err := openOutput(path)
		if err != nil {
			return nil, err
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		return w, nil
	}

	var err error
	if testCfg.JSONOutput, err = open(jsonOut); err != nil {
		return err
	}
	if testCfg.PValuesOutput, err = open(pValuesOut); err != nil {
		return err
	}
	if testCfg.LabelsOutput, err = open(labelsOut); err != nil {
		return err
	}

	fmt.Printf("Loading the model '%s'.\n", modelPath)
	start := time.Now()
	report, err := cli.RunTestFile(modelPath, dataPath, testCfg)
	if err != nil {
		return err
	}
	fmt.Printf("Duration %g sec.\n", time.Since(start).Seconds())
	fmt.Print(report.String())
	return nil
}

// openOutput maps a flag value to a writer. The empty string disables
// the stream and "-" selects standard output.
func openOutput(path string) (io.Writer, func() error, error) {
	switch path {
	case "":
		return nil, nil, nil
	case "-":
		return os.Stdout, nil, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "semijcp: create %q", path)
		}
		return f, f.Close, nil
	}
}

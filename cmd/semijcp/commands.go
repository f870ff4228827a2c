package main

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
	"github.com/farzadhallaji/semiJCP/pkg/log"
)

var (
	cfg Config

	logLevel         string
	modelPath        string
	dataPath         string
	significance     float64
	debug            bool
	ncFuncName       string
	classifierName   string
	scaleData        bool
	labelConditional bool
	sequential       bool
	leafSize         int
	description      string
	jsonOut          string
	pValuesOut       string
	labelsOut        string
	inputPath        string
	outputPath       string

	rootCmd = &cobra.Command{
		Use:          "semijcp",
		Short:        "Transductive conformal prediction on svmlight data sets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := envconfig.Process("", &cfg); err != nil {
				return errors.Wrap(err, "semijcp: read environment")
			}
			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				logLevel = cfg.LogLevel
			}
			if !cmd.Flags().Changed("significance") {
				significance = cfg.Significance
			}
			if !cmd.Flags().Changed("ncfunc") && cfg.NCFunction != "" {
				ncFuncName = cfg.NCFunction
			}
			if !cmd.Flags().Changed("classifier") && cfg.Classifier != "" {
				classifierName = cfg.Classifier
			}
			log.SetupLogger(logLevel)
			wireWarningSink()
			return nil
		},
	}

	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Fit a conformal classifier on a training set and save the model bundle",
		RunE:  runTrain,
	}

	testCmd = &cobra.Command{
		Use:   "test",
		Short: "Evaluate a saved model bundle on a labelled test set",
		RunE:  runTestCommand,
	}

	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Classify JSON instances with a saved model bundle",
		RunE:  runPredict,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	trainCmd.Flags().StringVarP(&dataPath, "data", "d", "", "Training set in svmlight format")
	trainCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Output path for the model bundle")
	trainCmd.Flags().StringVarP(&ncFuncName, "ncfunc", "n", "hinge", "Nonconformity function: hinge, margin, average, or a numeric selector")
	trainCmd.Flags().StringVarP(&classifierName, "classifier", "c", "logistic", "Underlying classifier: logistic, passive-aggressive or none")
	trainCmd.Flags().BoolVar(&scaleData, "scale", false, "Standardize attributes and store the scaler in the bundle")
	trainCmd.Flags().BoolVar(&labelConditional, "label-conditional", false, "Calibrate separately per true label")
	trainCmd.Flags().BoolVar(&sequential, "sequential", false, "Disable parallel classification")
	trainCmd.Flags().IntVar(&leafSize, "leaf-size", 0, "Hypotheses per parallel work unit (0 = automatic)")
	trainCmd.Flags().StringVar(&description, "description", "", "Free-form model description")
	_ = trainCmd.MarkFlagRequired("data")
	_ = trainCmd.MarkFlagRequired("model")

	testCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Model bundle to evaluate")
	testCmd.Flags().StringVarP(&dataPath, "data", "d", "", "Test set in svmlight format")
	testCmd.Flags().Float64VarP(&significance, "significance", "s", 0.05, "Significance level in (0, 1)")
	testCmd.Flags().StringVar(&jsonOut, "json", "", "Write results as a JSON array to this file (- for stdout)")
	testCmd.Flags().StringVar(&pValuesOut, "pvalues", "", "Write per-instance p-value rows to this file")
	testCmd.Flags().StringVar(&labelsOut, "labels", "", "Write per-instance prediction sets to this file")
	testCmd.Flags().BoolVar(&debug, "debug", false, "Extend JSON results with true labels and nonconformity scores")
	_ = testCmd.MarkFlagRequired("model")
	_ = testCmd.MarkFlagRequired("data")

	predictCmd.Flags().StringVarP(&modelPath, "model", "m", "", "Model bundle to apply")
	predictCmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON instance stream (default stdin)")
	predictCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Result destination (default stdout)")
	predictCmd.Flags().BoolVar(&debug, "debug", false, "Extend results with true labels and nonconformity scores")
	_ = predictCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(trainCmd, testCmd, predictCmd)
}

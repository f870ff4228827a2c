// Command semijcp trains, evaluates and applies transductive conformal
// classifiers on sparse svmlight data sets.
//
// The train subcommand fits a classifier and saves it as a model bundle.
// The test subcommand evaluates a saved bundle against a labelled set at
// a significance level, and predict streams JSON instances through one.
package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// wireWarningSink routes library warnings to stderr through zerolog,
// keeping the structured fields the warning types marshal.
func wireWarningSink() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(w error) {
		event := zl.Warn()
		var obj zerolog.LogObjectMarshaler
		if errors.As(w, &obj) {
			event = event.EmbedObject(obj)
		}
		event.Msg(w.Error())
	})
}

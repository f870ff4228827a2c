package main

// Config carries environment defaults for flag values. A flag given on
// the command line wins over its environment variable.
type Config struct {
	LogLevel     string  `envconfig:"SEMIJCP_LOG_LEVEL" default:"warn"`
	Significance float64 `envconfig:"SEMIJCP_SIGNIFICANCE" default:"0.05"`
	NCFunction   string  `envconfig:"SEMIJCP_NC_FUNCTION" default:"hinge"`
	Classifier   string  `envconfig:"SEMIJCP_CLASSIFIER" default:"logistic"`
}

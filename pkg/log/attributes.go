// Package log defines standard attribute keys for conformal prediction
// operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging in semiJCP. Using these standard keys enables log analysis and
// filtering across training, calibration, and prediction runs.
//
// The attributes are organized into categories:
//   - Model and Operation Context
//   - Data Shape and Characteristics
//   - Conformal Prediction Context
//   - Performance Metrics
//   - Error Context
//
// The keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") to enable structured log analysis and filtering.

package log

// Model and Operation Context
// These attributes identify the model type, instance, and operation being performed.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "TransductiveConformalClassifier", "LogisticRegression"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	// Useful for tracking multiple instances of the same model type.
	// Examples: "tcc-001", UUID strings
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "predict_p", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "cp", "nc", "linear", "preprocessing"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	// Examples: "training", "calibration", "inference", "evaluation"
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
// These attributes describe the structure of the data being processed.
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	// Important for debugging shape mismatches.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of class labels under consideration.
	ClassesKey = "data.classes"

	// DataTypeKey specifies the representation of the data being processed.
	// Examples: "dense", "sparse", "float64"
	DataTypeKey = "data.type"

	// BatchSizeKey indicates the size of a processing batch of test instances.
	BatchSizeKey = "data.batch_size"
)

// Conformal Prediction Context
// These attributes capture the quantities specific to conformal predictors.
const (
	// SignificanceKey records the significance level used to build
	// prediction sets. Range (0.0, 1.0].
	SignificanceKey = "cp.significance"

	// CalibrationSizeKey records the number of calibration scores backing
	// the p-value computation.
	CalibrationSizeKey = "cp.calibration_size"

	// LabelConditionalKey records whether label-conditional (Mondrian)
	// calibration is in effect.
	LabelConditionalKey = "cp.label_conditional"

	// NonconformityKey identifies the nonconformity function in use.
	// Examples: "hinge loss nonconformity function"
	NonconformityKey = "cp.nonconformity"

	// AvgSetSizeKey records the average prediction set size over a batch.
	AvgSetSizeKey = "cp.avg_set_size"

	// ErrorRateKey records the observed fraction of prediction sets that
	// missed the true label.
	ErrorRateKey = "cp.error_rate"
)

// Performance Metrics
// These attributes capture timing and resource usage information.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// DurationSecondsKey records the execution time in seconds for longer
	// operations such as training over a large augmented set.
	DurationSecondsKey = "perf.duration_seconds"

	// MemoryUsageKey records memory usage in bytes during the operation.
	MemoryUsageKey = "perf.memory_bytes"

	// WorkersKey records the number of concurrent workers used by a
	// parallel operation.
	WorkersKey = "perf.workers"

	// ChunkSizeKey records the per-worker chunk size of a parallel operation.
	ChunkSizeKey = "perf.chunk_size"

	// AccuracyKey records point-prediction accuracy for evaluation runs.
	// Range [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// LossKey records a loss value during training.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration during iterative training.
	IterationKey = "training.iteration"
)

// Prediction and Output Context
// These attributes describe prediction operations and their results.
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ConfidenceKey records prediction confidence, one minus the second
	// largest p-value. Range [0.0, 1.0].
	ConfidenceKey = "preds.confidence"

	// CredibilityKey records prediction credibility, the largest p-value.
	// Range [0.0, 1.0].
	CredibilityKey = "preds.credibility"
)

// Error and Warning Context
// These attributes provide additional context for error and warning messages.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_MISMATCH", "NOT_FITTED", "UNSUPPORTED_STRATEGY"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "ValidationError", "ConfigurationError", "PersistenceError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Populated automatically by the error logging handler.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides suggestions for resolving issues.
	// Examples: "Check input data shape", "Increase max_iterations"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
// These attributes capture model configuration.
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// LearningRateKey records the learning rate for gradient-based training.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records regularization strength.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Infrastructure and Environment
// These attributes describe the execution environment.
const (
	// HostnameKey identifies the machine running the operation.
	HostnameKey = "infra.hostname"

	// ProcessIDKey records the process ID for the operation.
	ProcessIDKey = "infra.pid"

	// WorkerIDKey identifies a worker goroutine in parallel classification.
	WorkerIDKey = "infra.worker_id"
)

// Standard attribute value constants for common operations.
// Using these constants keeps field values consistent across the codebase.
const (
	// Standard operations
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationPredictPValue = "predict_p"
	OperationTransform     = "transform"
	OperationScore         = "score"
	OperationEvaluate      = "evaluate"

	// Standard phases
	PhaseTraining      = "training"
	PhaseCalibration   = "calibration"
	PhaseInference     = "inference"
	PhaseEvaluation    = "evaluation"
	PhasePreprocessing = "preprocessing"

	// Standard error codes
	ErrorNotFitted           = "NOT_FITTED"
	ErrorDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrorEmptyData           = "EMPTY_DATA"
	ErrorInvalidInput        = "INVALID_INPUT"
	ErrorConvergence         = "CONVERGENCE_FAILURE"
	ErrorUnsupportedStrategy = "UNSUPPORTED_STRATEGY"
	ErrorPersistence         = "PERSISTENCE_FAILURE"
)

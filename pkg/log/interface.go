// Package log provides structured logging for semiJCP operations.
//
// This package defines a minimal, slog-compatible logging interface that
// allows implementations to be swapped while providing structured logging
// for training, calibration, and prediction runs. The interface integrates
// with Go's standard log/slog package and with zerolog-backed sinks.
//
// Key features:
//   - slog-compatible interface
//   - Standard attribute keys for models, data shapes, and conformal quantities
//   - Context-aware logging with field chaining
//   - Test-friendly with configurable output destinations
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "TransductiveConformalClassifier",
//	    log.EstimatorIDKey, "tcc-001",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// It provides the core logging methods with structured field support and is
// implementation-agnostic, enabling switching between logging backends while
// keeping a consistent API. Contextual loggers with pre-populated fields are
// created through With.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	// Debug logs carry detailed diagnostic information and are usually
	// disabled outside development.
	//
	// Example:
	//
	//	logger.Debug("Scoring batch",
	//	    "batch_id", 42,
	//	    "size", 100,
	//	)
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	// Info logs carry general operational information.
	//
	// Example:
	//
	//	logger.Info("Model training completed",
	//	    log.DurationMsKey, 5432,
	//	    log.SamplesKey, 1000,
	//	)
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	// Warning logs indicate potentially problematic situations that do not
	// prevent the operation from continuing.
	//
	// Example:
	//
	//	logger.Warn("Calibration set very small",
	//	    log.CalibrationSizeKey, 4,
	//	    log.SignificanceKey, 0.05,
	//	)
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If an error value is passed through ErrAttr, stacktrace information
	// is included automatically.
	//
	// Example:
	//
	//	logger.Error("Model training failed",
	//	    log.ErrAttr(err),
	//	    log.OperationKey, log.OperationFit,
	//	)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated. All
	// subsequent log messages from the returned logger include them.
	//
	// Example:
	//
	//	contextLogger := logger.With(
	//	    log.ModelNameKey, "TransductiveConformalClassifier",
	//	    log.EstimatorIDKey, "tcc-123",
	//	)
	//	contextLogger.Info("Starting training")
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive attribute construction for records that
	// would be dropped.
	//
	// Example:
	//
	//	if logger.Enabled(ctx, LevelDebug) {
	//	    logger.Debug("Detailed p-values", "pvalues", expensiveDump())
	//	}
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// It allows dependency injection and testing with different logger
// implementations.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}

package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "CAMCFG_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks CAMCFG_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Plain levels when stdout is captured by syslog
	if term.IsTerminal(int(os.Stdout.Fd())) {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the CAMCFG_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger and returns the previous one
func SetLogger(l *zap.Logger) *zap.Logger {
	prev := logger
	logger = l
	return prev
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogRejectedField logs a value refused by the strict contract
func LogRejectedField(section, key, value string, err error) {
	Warn("Rejected configuration value",
		zap.String("section", section),
		zap.String("key", key),
		zap.String("value", printable(value)),
		zap.Error(err),
	)
}

// LogAdjustedField logs a value the boot loader had to clamp, truncate or
// replace with its default
func LogAdjustedField(section, key, raw, stored, reason string) {
	Warn("Adjusted configuration value",
		zap.String("section", section),
		zap.String("key", key),
		zap.String("raw", printable(raw)),
		zap.String("stored", stored),
		zap.String("reason", reason),
	)
}

// LogUnknownField logs a setting that is not in the schema
func LogUnknownField(section, key string, line int) {
	Info("Ignoring unknown configuration key",
		zap.String("section", section),
		zap.String("key", printable(key)),
		zap.Int("line", line),
	)
}

// LogFlush logs the outcome of a persistence flush
func LogFlush(pending int, path string, err error) {
	if err != nil {
		Error("Configuration flush failed",
			zap.Int("pending", pending),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	Debug("Configuration flushed",
		zap.Int("pending", pending),
		zap.String("path", path),
	)
}

// printable limits untrusted file content to 64 printable ASCII bytes
func printable(s string) string {
	const limit = 64
	truncated := len(s) > limit
	if truncated {
		s = s[:limit]
	}

	result := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if b := s[i]; b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	if truncated {
		return string(result) + "..."
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

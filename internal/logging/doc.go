// Package logging provides structured logging for the camera configuration
// store.
//
// This package wraps a global zap logger with convenience functions. It is
// silent unless a level is passed to Initialize or CAMCFG_LOG_LEVEL is set,
// so library code can log freely without polluting CLI output.
//
// # Log Levels
//
//   - Debug: flush cycles, per-line parser decisions
//   - Info: lifecycle events, unknown keys skipped while loading
//   - Warn: rejected, clamped, truncated or defaulted values
//   - Error: failed flushes and file writes
//
// # Configuration Events
//
// Every value that a loader or setter refuses or adjusts is reported with
// its section, key and raw text:
//
//	logging.LogRejectedField("onvif", "http_port", "70000", err)
//	logging.LogAdjustedField("stream_profile_1", "width", "4000", "1920", "clamped")
//
// Raw values come from an untrusted file and are reduced to printable
// ASCII before they are logged.
package logging

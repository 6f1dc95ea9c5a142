package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Log level constants for convenience
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

// ParseLogLevelString parses a level name case-insensitively.
// Valid levels: debug, info, warn, warning, error, fatal.
func ParseLogLevelString(levelStr string, defaultLevel zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return defaultLevel
	}
}

// ResolveLevel returns the level named by LOG_LEVEL, falling back to debug in
// development and info otherwise.
func ResolveLevel(levelStr string, isDev bool) zapcore.Level {
	def := zapcore.InfoLevel
	if isDev {
		def = zapcore.DebugLevel
	}
	return ParseLogLevelString(levelStr, def)
}

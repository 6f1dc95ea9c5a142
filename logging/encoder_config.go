package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// JSON keys used in log output.
const (
	FieldTimestamp  = "timestamp"
	FieldLevel      = "level"
	FieldSource     = "source" // logger name, e.g. "webui" or "pipeline"
	FieldMessage    = "message"
	FieldStacktrace = "stacktrace"
	FieldCaller     = "caller"

	// FieldRequestID carries the X-Request-ID of the HTTP request being served.
	FieldRequestID = "request_id"
)

// NewEncoderConfig returns the encoder configuration for JSON output:
// ISO8601 timestamps, lowercase levels, short caller paths and durations in
// seconds.
func NewEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       FieldTimestamp,
		LevelKey:      FieldLevel,
		NameKey:       FieldSource,
		CallerKey:     FieldCaller,
		MessageKey:    FieldMessage,
		StacktraceKey: FieldStacktrace,
		LineEnding:    zapcore.DefaultLineEnding,

		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// NewConsoleEncoderConfig returns the encoder configuration for development
// console output: colored levels, clock-only timestamps, human durations.
func NewConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := NewEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = shortTimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

// shortTimeEncoder formats time as 15:04:05.000.
func shortTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}

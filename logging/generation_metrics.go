package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GenerationMetrics describes one image generation for structured logs.
// Implements zapcore.ObjectMarshaler.
//
// Example:
//
//	logger.Info("generation complete", logging.GenerationFields(logging.GenerationMetrics{
//		Backend:  "a1111",
//		Steps:    20,
//		Width:    512,
//		Height:   512,
//		Seed:     1234,
//		Duration: 41 * time.Second,
//	}))
type GenerationMetrics struct {
	Backend      string
	PromptLength int // bytes; prompts themselves are logged at debug only
	Steps        int
	Width        int
	Height       int
	Seed         int64
	Warmup       bool
	Duration     time.Duration
	OutputPath   string
	OutputBytes  int
}

// MarshalLogObject encodes the metrics with snake_case keys. Duration is
// reported in milliseconds.
func (m GenerationMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("backend", m.Backend)
	enc.AddInt("prompt_length", m.PromptLength)
	enc.AddInt("steps", m.Steps)
	enc.AddInt("width", m.Width)
	enc.AddInt("height", m.Height)
	enc.AddInt64("seed", m.Seed)
	enc.AddBool("warmup", m.Warmup)
	enc.AddInt64("duration_ms", m.Duration.Milliseconds())
	if m.OutputPath != "" {
		enc.AddString("output_path", m.OutputPath)
		enc.AddInt("output_bytes", m.OutputBytes)
	}
	return nil
}

// GenerationFields wraps metrics as a single "generation" object field.
func GenerationFields(m GenerationMetrics) zap.Field {
	return zap.Object("generation", m)
}

// SizeFields returns width and height fields.
func SizeFields(width, height int) []zap.Field {
	return []zap.Field{
		zap.Int("width", width),
		zap.Int("height", height),
	}
}

// TimingFields returns start, end and duration fields for an operation.
func TimingFields(startTime, endTime time.Time) []zap.Field {
	return []zap.Field{
		zap.Time("start_time", startTime),
		zap.Time("end_time", endTime),
		zap.Duration("duration", endTime.Sub(startTime)),
	}
}

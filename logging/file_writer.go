package logging

import (
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the application log file.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
	DefaultCompress   = true
)

// FileWriterConfig holds rotation settings for the log file.
// Zero numeric fields fall back to the defaults; use DefaultFileWriterConfig
// to get Compress enabled.
type FileWriterConfig struct {
	MaxSizeMB  int  // size before rotation
	MaxBackups int  // rotated files retained
	MaxAgeDays int  // days rotated files are retained
	Compress   bool // gzip rotated files
	LocalTime  bool // local time in backup names instead of UTC
}

// DefaultFileWriterConfig returns the default rotation settings.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
}

// NewFileWriter creates a rotating zapcore.WriteSyncer with default settings.
func NewFileWriter(path string) zapcore.WriteSyncer {
	return NewFileWriterWithConfig(path, DefaultFileWriterConfig())
}

// NewFileWriterWithConfig creates a rotating zapcore.WriteSyncer backed by
// lumberjack.
//
// Example:
//
//	writer := NewFileWriterWithConfig("logs/sdweb.log", FileWriterConfig{MaxSizeMB: 20, MaxBackups: 2})
//	core := zapcore.NewCore(encoder, writer, level)
func NewFileWriterWithConfig(path string, config FileWriterConfig) zapcore.WriteSyncer {
	cfg := applyFileWriterDefaults(config)

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	})
}

func applyFileWriterDefaults(config FileWriterConfig) FileWriterConfig {
	result := config
	if result.MaxSizeMB <= 0 {
		result.MaxSizeMB = DefaultMaxSizeMB
	}
	if result.MaxBackups <= 0 {
		result.MaxBackups = DefaultMaxBackups
	}
	if result.MaxAgeDays <= 0 {
		result.MaxAgeDays = DefaultMaxAgeDays
	}
	return result
}

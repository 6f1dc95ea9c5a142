package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

// NewMultiCore creates a zapcore.Core that tees output to stdout and a
// rotated log file, using the default rotation settings.
//
// The file always receives JSON. The console receives colored human-readable
// output in development and JSON otherwise.
func NewMultiCore(level zapcore.Level, filePath string, isDev bool) (zapcore.Core, error) {
	return NewMultiCoreWithConfig(level, filePath, isDev, DefaultFileWriterConfig())
}

// NewMultiCoreWithConfig is NewMultiCore with explicit rotation settings.
// The log file is opened once up front so a bad path fails at startup
// instead of on the first write.
func NewMultiCoreWithConfig(level zapcore.Level, filePath string, isDev bool, cfg FileWriterConfig) (zapcore.Core, error) {
	if filePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}
	probe, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	probe.Close()

	return NewMultiCoreWithWriters(level, zapcore.Lock(os.Stdout), NewFileWriterWithConfig(filePath, cfg), isDev), nil
}

// NewMultiCoreWithWriters creates a zapcore.Core that tees output to the
// provided writers. Useful for tests.
func NewMultiCoreWithWriters(level zapcore.Level, consoleWriter, fileWriter zapcore.WriteSyncer, isDev bool) zapcore.Core {
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		fileWriter,
		level,
	)

	var consoleEncoder zapcore.Encoder
	if isDev {
		consoleEncoder = zapcore.NewConsoleEncoder(NewConsoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(NewEncoderConfig())
	}

	consoleCore := zapcore.NewCore(
		consoleEncoder,
		consoleWriter,
		level,
	)

	return zapcore.NewTee(consoleCore, fileCore)
}

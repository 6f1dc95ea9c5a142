package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with automatic sensitive data redaction.
//
// It composes:
//   - FileWriter (log file rotation via lumberjack)
//   - MultiCore (tee output to console + file)
//   - SensitiveFilter (API key redaction)
//
// Example:
//
//	logger, err := NewLogger(true, "app.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", zap.String("addr", "localhost:5000"))
type Logger struct {
	zap           *zap.Logger
	sugar         *zap.SugaredLogger
	isDevelopment bool
	logFilePath   string
}

// Options configures NewLoggerWithOptions. Zero values fall back to the
// development/production defaults.
type Options struct {
	Development bool
	// Level overrides the default level (debug in development, info otherwise).
	Level string
	// FilePath is the rotated JSON log file.
	FilePath string
	// File tunes rotation.
	File FileWriterConfig
}

// NewLogger creates a Logger for the given environment.
//
// Development mode writes colored console output at debug level; production
// writes JSON at info level. Both modes also write JSON to logFilePath,
// rotated at 100MB with 5 compressed backups kept for 30 days.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	return NewLoggerWithOptions(Options{
		Development: isDevelopment,
		FilePath:    logFilePath,
		File:        DefaultFileWriterConfig(),
	})
}

// NewLoggerWithOptions creates a Logger with an explicit level and rotation
// configuration.
func NewLoggerWithOptions(opts Options) (*Logger, error) {
	level := ResolveLevel(opts.Level, opts.Development)

	core, err := NewMultiCoreWithConfig(level, opts.FilePath, opts.Development, opts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to create log core: %w", err)
	}

	zapLogger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // skip this wrapper
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: opts.Development,
		logFilePath:   opts.FilePath,
	}, nil
}

// NewFromZap wraps an existing zap.Logger. Used by tests (zaptest, observer)
// and by callers that already own a zap core.
func NewFromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zap: z, sugar: z.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a message at DebugLevel with optional structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, l.redactFields(fields)...)
}

// Info logs a message at InfoLevel with optional structured fields.
//
// Example:
//
//	logger.Info("generation complete",
//	    zap.Int("steps", 20),
//	    zap.Duration("duration", d))
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, l.redactFields(fields)...)
}

// Warn logs a message at WarnLevel with optional structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, l.redactFields(fields)...)
}

// Error logs a message at ErrorLevel with optional structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, l.redactFields(fields)...)
}

// Fatal logs a message at FatalLevel then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, l.redactFields(fields)...)
}

// Debugw logs a message at DebugLevel with loosely-typed key-value pairs.
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, l.redactKeysAndValues(keysAndValues)...)
}

// Infow logs a message at InfoLevel with loosely-typed key-value pairs.
//
// Example:
//
//	logger.Infow("backend selected", "kind", "a1111", "url", url)
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, l.redactKeysAndValues(keysAndValues)...)
}

// Warnw logs a message at WarnLevel with loosely-typed key-value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, l.redactKeysAndValues(keysAndValues)...)
}

// Errorw logs a message at ErrorLevel with loosely-typed key-value pairs.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, l.redactKeysAndValues(keysAndValues)...)
}

// Infof logs a formatted message at InfoLevel.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// Warnf logs a formatted message at WarnLevel.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

// Errorf logs a formatted message at ErrorLevel.
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// With creates a child logger whose entries all carry fields.
//
// Example:
//
//	reqLogger := logger.With(zap.String("request_id", id))
//	reqLogger.Info("generation started")
func (l *Logger) With(fields ...zap.Field) *Logger {
	newZap := l.zap.With(l.redactFields(fields)...)
	return &Logger{
		zap:           newZap,
		sugar:         newZap.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Named adds a sub-logger name, shown in the "source" field.
func (l *Logger) Named(name string) *Logger {
	newZap := l.zap.Named(name)
	return &Logger{
		zap:           newZap,
		sugar:         newZap.Sugar(),
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Zap returns the underlying zap.Logger for packages that take *zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// IsDevelopment returns true if the logger is configured for development mode.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path to the log file.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}

func (l *Logger) redactFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}

	result := make([]zap.Field, len(fields))
	for i, field := range fields {
		result[i] = redactField(field)
	}
	return result
}

func redactField(field zap.Field) zap.Field {
	if IsSensitiveField(field.Key) {
		return zap.String(field.Key, RedactedPlaceholder)
	}

	if field.Type == zapcore.StringType {
		if redacted := RedactSensitiveData(field.String); redacted != field.String {
			return zap.String(field.Key, redacted)
		}
	}

	return field
}

func (l *Logger) redactKeysAndValues(keysAndValues []interface{}) []interface{} {
	if len(keysAndValues) == 0 {
		return keysAndValues
	}

	result := make([]interface{}, len(keysAndValues))
	copy(result, keysAndValues)

	// even indices are keys, odd indices are values
	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}

		if IsSensitiveField(key) {
			result[i+1] = RedactedPlaceholder
			continue
		}

		if value, ok := result[i+1].(string); ok {
			result[i+1] = RedactSensitiveData(value)
		}
	}

	return result
}

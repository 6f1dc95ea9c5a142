package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevelString(t *testing.T) {
	tests := []struct {
		name         string
		levelStr     string
		defaultLevel zapcore.Level
		expected     zapcore.Level
	}{
		{
			name:         "debug level lowercase",
			levelStr:     "debug",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.DebugLevel,
		},
		{
			name:         "info level uppercase",
			levelStr:     "INFO",
			defaultLevel: zapcore.DebugLevel,
			expected:     zapcore.InfoLevel,
		},
		{
			name:         "warn level mixed case",
			levelStr:     "Warn",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.WarnLevel,
		},
		{
			name:         "warning alternative",
			levelStr:     "warning",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.WarnLevel,
		},
		{
			name:         "error level",
			levelStr:     "error",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.ErrorLevel,
		},
		{
			name:         "fatal level",
			levelStr:     "FATAL",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.FatalLevel,
		},
		{
			name:         "invalid level returns default",
			levelStr:     "invalid",
			defaultLevel: zapcore.WarnLevel,
			expected:     zapcore.WarnLevel,
		},
		{
			name:         "empty string returns default",
			levelStr:     "",
			defaultLevel: zapcore.ErrorLevel,
			expected:     zapcore.ErrorLevel,
		},
		{
			name:         "whitespace trimmed",
			levelStr:     "  debug  ",
			defaultLevel: zapcore.InfoLevel,
			expected:     zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLogLevelString(tt.levelStr, tt.defaultLevel)
			if result != tt.expected {
				t.Errorf("ParseLogLevelString(%q, %v) = %v, want %v",
					tt.levelStr, tt.defaultLevel, result, tt.expected)
			}
		})
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name     string
		levelStr string
		isDev    bool
		expected zapcore.Level
	}{
		{"dev default", "", true, zapcore.DebugLevel},
		{"prod default", "", false, zapcore.InfoLevel},
		{"explicit overrides dev", "warn", true, zapcore.WarnLevel},
		{"explicit overrides prod", "debug", false, zapcore.DebugLevel},
		{"invalid falls back", "loud", false, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveLevel(tt.levelStr, tt.isDev); got != tt.expected {
				t.Errorf("ResolveLevel(%q, %v) = %v, want %v", tt.levelStr, tt.isDev, got, tt.expected)
			}
		})
	}
}

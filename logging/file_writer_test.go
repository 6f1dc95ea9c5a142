package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFileWriterConfig(t *testing.T) {
	config := DefaultFileWriterConfig()

	if config.MaxSizeMB != DefaultMaxSizeMB || config.MaxBackups != DefaultMaxBackups ||
		config.MaxAgeDays != DefaultMaxAgeDays || config.Compress != DefaultCompress || config.LocalTime {
		t.Errorf("DefaultFileWriterConfig() = %+v", config)
	}
}

func TestNewFileWriter_WritesAndCreatesDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "sdweb.log")
	writer := NewFileWriterWithConfig(logPath, FileWriterConfig{MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	msg := []byte("generation complete\n")
	n, err := writer.Write(msg)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write returned %d bytes, expected %d", n, len(msg))
	}
	if err := writer.Sync(); err != nil {
		t.Errorf("Sync failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if string(content) != string(msg) {
		t.Errorf("File content = %q, want %q", content, msg)
	}
}

func TestApplyFileWriterDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    FileWriterConfig
		expected FileWriterConfig
	}{
		{
			name:     "zero values get defaults",
			input:    FileWriterConfig{},
			expected: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
		{
			name:     "negative values get defaults",
			input:    FileWriterConfig{MaxSizeMB: -1, MaxBackups: -1, MaxAgeDays: -1},
			expected: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
		{
			name:     "custom values preserved",
			input:    FileWriterConfig{MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true, LocalTime: true},
			expected: FileWriterConfig{MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true, LocalTime: true},
		},
		{
			name:     "partial custom values",
			input:    FileWriterConfig{MaxSizeMB: 25, Compress: true},
			expected: FileWriterConfig{MaxSizeMB: 25, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays, Compress: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyFileWriterDefaults(tt.input); got != tt.expected {
				t.Errorf("applyFileWriterDefaults() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

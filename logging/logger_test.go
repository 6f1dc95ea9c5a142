package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// syncLogger calls Sync and ignores the "invalid argument" Linux returns
// for syncing stdout.
func syncLogger(t testing.TB, logger *Logger) {
	t.Helper()
	if err := logger.Sync(); err != nil && !strings.Contains(err.Error(), "invalid argument") {
		t.Logf("Sync() warning: %v", err)
	}
}

func TestNewLogger_WritesJSONFile(t *testing.T) {
	for _, dev := range []bool{true, false} {
		logPath := filepath.Join(t.TempDir(), "logs", "app.log")

		logger, err := NewLogger(dev, logPath)
		if err != nil {
			t.Fatalf("NewLogger(%v) returned error: %v", dev, err)
		}
		if logger.IsDevelopment() != dev {
			t.Errorf("IsDevelopment() = %v, want %v", logger.IsDevelopment(), dev)
		}
		if logger.LogFilePath() != logPath {
			t.Errorf("LogFilePath() = %q, want %q", logger.LogFilePath(), logPath)
		}

		logger.Info("Generator ready!", zap.String("backend", "local"))
		syncLogger(t, logger)

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		line := strings.TrimSpace(strings.Split(string(content), "\n")[0])

		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v (%q)", err, line)
		}
		if entry[FieldMessage] != "Generator ready!" || entry["backend"] != "local" {
			t.Errorf("unexpected entry: %v", entry)
		}
		if _, ok := entry[FieldTimestamp]; !ok {
			t.Errorf("entry missing %q", FieldTimestamp)
		}
	}
}

func TestNewLoggerWithOptions_LevelOverride(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewLoggerWithOptions(Options{Development: true, Level: "warn", FilePath: logPath})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("filtered")
	logger.Warn("kept")
	syncLogger(t, logger)

	content, _ := os.ReadFile(logPath)
	if strings.Contains(string(content), "filtered") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(string(content), "kept") {
		t.Error("warn entry should be written")
	}
}

func TestNewLogger_InvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLogger(false, filepath.Join(blocker, "app.log")); err == nil {
		t.Error("expected error for log path under a regular file")
	}
	if _, err := NewLogger(false, ""); err == nil {
		t.Error("expected error for empty log path")
	}
}

func TestNewMultiCoreWithWriters(t *testing.T) {
	var console, file bytes.Buffer

	core := NewMultiCoreWithWriters(zapcore.InfoLevel, zapcore.AddSync(&console), zapcore.AddSync(&file), false)
	logger := zap.New(core)

	logger.Debug("dropped")
	logger.Info("listening", zap.String("addr", "localhost:5000"))

	if strings.Contains(file.String(), "dropped") || strings.Contains(console.String(), "dropped") {
		t.Error("debug entries should be filtered at info level")
	}
	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		if !strings.Contains(buf.String(), `"addr":"localhost:5000"`) {
			t.Errorf("%s output missing JSON field: %q", name, buf.String())
		}
	}
}

func TestNewMultiCoreWithWriters_DevConsoleIsText(t *testing.T) {
	var console, file bytes.Buffer

	core := NewMultiCoreWithWriters(zapcore.DebugLevel, zapcore.AddSync(&console), zapcore.AddSync(&file), true)
	zap.New(core).Debug("warming up")

	if strings.HasPrefix(strings.TrimSpace(console.String()), "{") {
		t.Errorf("dev console output should not be JSON: %q", console.String())
	}
	if !strings.HasPrefix(strings.TrimSpace(file.String()), "{") {
		t.Errorf("file output should be JSON: %q", file.String())
	}
}

func TestLogger_RedactsSensitiveValues(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(obsCore))

	logger.Info("backend configured",
		zap.String("SD_API_KEY", "sk-not-a-real-key-but-long-enough"),
		zap.String("error", "401 for key sk-abcdefghijklmnopqrstuvwxyz"),
		zap.String("prompt", "a red circle"))
	logger.Infow("sugared", "api_key", "plain", "url", "http://127.0.0.1:7860")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["SD_API_KEY"] != RedactedPlaceholder {
		t.Errorf("SD_API_KEY = %v, want redacted", fields["SD_API_KEY"])
	}
	if strings.Contains(fields["error"].(string), "sk-abc") {
		t.Errorf("error value not redacted: %v", fields["error"])
	}
	if fields["prompt"] != "a red circle" {
		t.Errorf("prompt should be untouched, got %v", fields["prompt"])
	}

	sugared := entries[1].ContextMap()
	if sugared["api_key"] != RedactedPlaceholder || sugared["url"] != "http://127.0.0.1:7860" {
		t.Errorf("unexpected sugared fields: %v", sugared)
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(obsCore)).Named("webui").With(zap.String("request_id", "abc"))

	logger.Warn("busy")

	entry := logs.All()[0]
	if entry.LoggerName != "webui" {
		t.Errorf("LoggerName = %q, want webui", entry.LoggerName)
	}
	if entry.ContextMap()["request_id"] != "abc" {
		t.Errorf("missing request_id: %v", entry.ContextMap())
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() = %v", err)
	}
	if NewFromZap(nil).Zap() == nil {
		t.Error("NewFromZap(nil) should fall back to a no-op logger")
	}
}

func TestGenerationFields(t *testing.T) {
	obsCore, logs := observer.New(zapcore.InfoLevel)
	logger := NewFromZap(zap.New(obsCore))

	logger.Info("generation complete", GenerationFields(GenerationMetrics{
		Backend:      "a1111",
		PromptLength: 12,
		Steps:        10,
		Width:        256,
		Height:       256,
		Seed:         7,
		Warmup:       true,
		Duration:     1500 * time.Millisecond,
		OutputPath:   "outputs/generated.png",
		OutputBytes:  2048,
	}))

	gen, ok := logs.All()[0].ContextMap()["generation"].(map[string]interface{})
	if !ok {
		t.Fatalf("generation field is not an object: %v", logs.All()[0].ContextMap())
	}
	if gen["backend"] != "a1111" || gen["duration_ms"] != int64(1500) || gen["output_path"] != "outputs/generated.png" {
		t.Errorf("unexpected generation object: %v", gen)
	}
}

func TestSizeAndTimingFields(t *testing.T) {
	if fields := SizeFields(512, 256); len(fields) != 2 || fields[0].Integer != 512 || fields[1].Integer != 256 {
		t.Errorf("SizeFields() = %v", fields)
	}

	start := time.Now()
	fields := TimingFields(start, start.Add(2*time.Second))
	if len(fields) != 3 || time.Duration(fields[2].Integer) != 2*time.Second {
		t.Errorf("TimingFields() = %v", fields)
	}
}

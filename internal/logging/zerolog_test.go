package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBufferLogger(level Level) (*ZerologLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithWriter(buf, &LoggerConfig{
		Level:       level,
		LoggerName:  testLoggerName,
		ServiceName: testServiceName,
	})
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestZerologLoggerWritesJSON(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel)

	logger.Infow("Created and saved person", "name", "John Doe", "age", 25)

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["message"] != "Created and saved person" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["service"] != testServiceName {
		t.Errorf("service = %v, want %s", entry["service"], testServiceName)
	}
	if entry["name"] != "John Doe" {
		t.Errorf("name = %v, want John Doe", entry["name"])
	}
	if entry["age"] != float64(25) {
		t.Errorf("age = %v, want 25", entry["age"])
	}
}

func TestZerologLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Infof("formatted %s", "info")
	logger.Warn("warn message")
	logger.Errorf("error %d", 1)

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["message"] != "warn message" {
		t.Errorf("first message = %v", lines[0]["message"])
	}
	if lines[1]["message"] != "error 1" {
		t.Errorf("second message = %v", lines[1]["message"])
	}
}

func TestZerologLoggerSetLevel(t *testing.T) {
	logger, buf := newBufferLogger(InfoLevel)

	logger.SetLevel(ErrorLevel)
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), ErrorLevel)
	}
	if logger.IsLevelEnabled(InfoLevel) {
		t.Error("Info level should not be enabled after setting level to Error")
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestZerologLoggerWithFields(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel)

	child := logger.WithField("component", "person-repository").WithError(errors.New("boom"))
	child.Error("Error creating person")
	logger.Info("parent message")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["component"] != "person-repository" {
		t.Errorf("component = %v", lines[0]["component"])
	}
	if lines[0]["error"] != "boom" {
		t.Errorf("error = %v, want boom", lines[0]["error"])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Error("parent logger should not inherit child fields")
	}
}

func TestZerologLoggerErrorValuesAreStringified(t *testing.T) {
	logger, buf := newBufferLogger(DebugLevel)

	logger.Errorw("MongoDB connection error", "error", errors.New("connection refused"))

	lines := decodeLines(t, buf)
	if lines[0]["error"] != "connection refused" {
		t.Errorf("error = %v, want connection refused", lines[0]["error"])
	}
}

func TestZerologLoggerFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "file.log")

	logger, err := NewLoggerWithConfig(&LoggerConfig{
		Level:       InfoLevel,
		FilePath:    logFile,
		LoggerName:  testLoggerName,
		ServiceName: testServiceName,
	})
	if err != nil {
		t.Fatalf("NewLoggerWithConfig() error = %v", err)
	}

	logger.Info("written to file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "written to file") {
		t.Errorf("log file missing message: %s", content)
	}
}

func TestZerologLoggerClone(t *testing.T) {
	logger, _ := newBufferLogger(InfoLevel)
	logger.fields["run_id"] = "abc"

	clone := logger.Clone().(*ZerologLogger)
	clone.fields["extra"] = true

	if _, ok := logger.fields["extra"]; ok {
		t.Error("clone fields leaked into original")
	}
	if clone.fields["run_id"] != "abc" {
		t.Error("clone should copy existing fields")
	}
}

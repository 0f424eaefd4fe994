package logging

import (
	"path/filepath"
	"testing"
)

const (
	testLoggerName  = "test-logger"
	testServiceName = "test-service"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{FatalLevel, "FATAL"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{" info ", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoggerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggerConfig
		wantErr bool
	}{
		{
			name:   "file output",
			config: LoggerConfig{Level: InfoLevel, FilePath: "/tmp/x.log", LoggerName: testLoggerName, ServiceName: testServiceName},
		},
		{
			name:   "console output",
			config: LoggerConfig{Level: InfoLevel, LoggerName: testLoggerName, ServiceName: testServiceName},
		},
		{
			name:    "missing logger name",
			config:  LoggerConfig{ServiceName: testServiceName},
			wantErr: true,
		},
		{
			name:    "missing service name",
			config:  LoggerConfig{LoggerName: testLoggerName},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Level != InfoLevel {
		t.Errorf("DefaultConfig().Level = %v, want %v", config.Level, InfoLevel)
	}
	if config.FilePath != "" {
		t.Errorf("DefaultConfig().FilePath = %q, want console output", config.FilePath)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid, got %v", err)
	}
}

func TestKeysAndValuesToFields(t *testing.T) {
	fields := keysAndValuesToFields("name", "Mary", "count", 3, "dangling")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields["name"] != "Mary" {
		t.Errorf("fields[name] = %v, want Mary", fields["name"])
	}
	if fields["count"] != 3 {
		t.Errorf("fields[count] = %v, want 3", fields["count"])
	}

	numericKey := keysAndValuesToFields(1, "one")
	if numericKey["1"] != "one" {
		t.Errorf("numeric keys should be stringified, got %+v", numericKey)
	}
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "peoplestore.log")

	logger, err := NewLogger(&LoggerConfig{
		Level:       DebugLevel,
		FilePath:    logFile,
		LoggerName:  testLoggerName,
		ServiceName: testServiceName,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer logger.Close()

	if logger.GetLevel() != DebugLevel {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), DebugLevel)
	}
}

func TestNewLoggerWithNilConfig(t *testing.T) {
	logger, err := NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger(nil) error = %v", err)
	}
	defer logger.Close()

	if logger.GetLevel() != InfoLevel {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), InfoLevel)
	}
}

func TestNewLoggerWithInvalidConfig(t *testing.T) {
	if _, err := NewLogger(&LoggerConfig{ServiceName: testServiceName}); err == nil {
		t.Error("NewLogger() expected error for missing logger name")
	}

	_, err := NewLogger(&LoggerConfig{
		FilePath:    "/nonexistent-dir/sub/peoplestore.log",
		LoggerName:  testLoggerName,
		ServiceName: testServiceName,
	})
	if err == nil {
		t.Error("NewLogger() expected error for unwritable file path")
	}
}

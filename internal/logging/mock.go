package logging

import (
	"fmt"
	"strings"
	"sync"
)

// MockLogger implements the Logger interface for testing purposes.
// Loggers derived through WithFields, WithField, WithError and Clone record
// into the same entry list as their parent.
type MockLogger struct {
	mu     sync.RWMutex
	level  Level
	fields Fields
	sink   *entrySink

	serviceName string
}

// LogEntry represents a captured log entry for testing verification
type LogEntry struct {
	Level   Level
	Message string
	Fields  Fields
}

type entrySink struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewMockLogger creates a new mock logger at DebugLevel
func NewMockLogger() *MockLogger {
	return &MockLogger{
		level:  DebugLevel,
		fields: make(Fields),
		sink:   &entrySink{entries: make([]LogEntry, 0)},
	}
}

// NewMockLoggerWithLevel creates a mock logger with a specific level
func NewMockLoggerWithLevel(level Level) *MockLogger {
	mock := NewMockLogger()
	mock.SetLevel(level)
	return mock
}

func (m *MockLogger) SetLevel(level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

func (m *MockLogger) GetLevel() Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

func (m *MockLogger) IsLevelEnabled(level Level) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return level >= m.level
}

func (m *MockLogger) Debug(msg string) { m.log(DebugLevel, msg, nil) }
func (m *MockLogger) Info(msg string)  { m.log(InfoLevel, msg, nil) }
func (m *MockLogger) Warn(msg string)  { m.log(WarnLevel, msg, nil) }
func (m *MockLogger) Error(msg string) { m.log(ErrorLevel, msg, nil) }

// Fatal records the entry without exiting.
func (m *MockLogger) Fatal(msg string) { m.log(FatalLevel, msg, nil) }

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.log(DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.log(InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.log(WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.log(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Fatalf(format string, args ...interface{}) {
	m.log(FatalLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Debugw(msg string, keysAndValues ...interface{}) {
	m.log(DebugLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Infow(msg string, keysAndValues ...interface{}) {
	m.log(InfoLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Warnw(msg string, keysAndValues ...interface{}) {
	m.log(WarnLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Errorw(msg string, keysAndValues ...interface{}) {
	m.log(ErrorLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) WithFields(fields Fields) Logger {
	child := m.Clone().(*MockLogger)
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Fields{key: value})
}

func (m *MockLogger) WithError(err error) Logger {
	if err == nil {
		return m
	}
	return m.WithFields(Fields{"error": err.Error()})
}

// Clone returns a child logger sharing the captured entries
func (m *MockLogger) Clone() Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	newFields := make(Fields, len(m.fields))
	for k, v := range m.fields {
		newFields[k] = v
	}

	return &MockLogger{
		level:       m.level,
		fields:      newFields,
		sink:        m.sink,
		serviceName: m.serviceName,
	}
}

func (m *MockLogger) Close() error {
	return nil
}

func (m *MockLogger) log(level Level, msg string, additionalFields Fields) {
	if !m.IsLevelEnabled(level) {
		return
	}

	m.mu.RLock()
	allFields := make(Fields, len(m.fields)+len(additionalFields)+1)
	for k, v := range m.fields {
		allFields[k] = v
	}
	if m.serviceName != "" {
		allFields["service"] = m.serviceName
	}
	m.mu.RUnlock()

	for k, v := range additionalFields {
		allFields[k] = v
	}

	m.sink.mu.Lock()
	m.sink.entries = append(m.sink.entries, LogEntry{Level: level, Message: msg, Fields: allFields})
	m.sink.mu.Unlock()
}

// GetLogEntries returns all captured log entries (thread-safe copy)
func (m *MockLogger) GetLogEntries() []LogEntry {
	m.sink.mu.RLock()
	defer m.sink.mu.RUnlock()
	entries := make([]LogEntry, len(m.sink.entries))
	copy(entries, m.sink.entries)
	return entries
}

// GetLogEntriesByLevel returns log entries filtered by level
func (m *MockLogger) GetLogEntriesByLevel(level Level) []LogEntry {
	var filtered []LogEntry
	for _, entry := range m.GetLogEntries() {
		if entry.Level == level {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// HasLogEntry checks if a log entry with the exact message exists at the given level
func (m *MockLogger) HasLogEntry(level Level, message string) bool {
	return m.GetLogEntryWithMessage(level, message) != nil
}

// HasLogEntryContaining checks if any log entry at level contains text
func (m *MockLogger) HasLogEntryContaining(level Level, text string) bool {
	for _, entry := range m.GetLogEntriesByLevel(level) {
		if strings.Contains(entry.Message, text) {
			return true
		}
	}
	return false
}

// HasLogEntryWithField checks if any log entry has the field with the given value
func (m *MockLogger) HasLogEntryWithField(level Level, fieldKey string, fieldValue interface{}) bool {
	for _, entry := range m.GetLogEntriesByLevel(level) {
		if val, exists := entry.Fields[fieldKey]; exists && val == fieldValue {
			return true
		}
	}
	return false
}

// GetLogEntryWithMessage returns the first log entry with the exact message, or nil if not found
func (m *MockLogger) GetLogEntryWithMessage(level Level, message string) *LogEntry {
	for _, entry := range m.GetLogEntriesByLevel(level) {
		if entry.Message == message {
			e := entry
			return &e
		}
	}
	return nil
}

// ClearLogEntries clears all captured log entries
func (m *MockLogger) ClearLogEntries() {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.entries = make([]LogEntry, 0)
}

// GetLogCount returns the total number of captured log entries
func (m *MockLogger) GetLogCount() int {
	m.sink.mu.RLock()
	defer m.sink.mu.RUnlock()
	return len(m.sink.entries)
}

// GetLogCountByLevel returns the number of log entries for a specific level
func (m *MockLogger) GetLogCountByLevel(level Level) int {
	return len(m.GetLogEntriesByLevel(level))
}

// SetServiceName sets the service name for all future log entries
func (m *MockLogger) SetServiceName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceName = name
}

func (m *MockLogger) String() string {
	m.mu.RLock()
	level, service := m.level, m.serviceName
	m.mu.RUnlock()
	return fmt.Sprintf("MockLogger{level:%s, entries:%d, service:%s}",
		level.String(), m.GetLogCount(), service)
}

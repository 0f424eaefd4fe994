package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger interface using zerolog
type ZerologLogger struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	level    Level
	fields   Fields
	errorKey string
	config   *LoggerConfig
	file     *os.File
}

// NewLoggerWithConfig creates a ZerologLogger. JSON lines go to config.FilePath
// when set, otherwise a console writer on stdout is used.
func NewLoggerWithConfig(config *LoggerConfig) (*ZerologLogger, error) {
	if config.FilePath == "" {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return NewLoggerWithWriter(console, config), nil
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.FilePath, err)
	}

	z := NewLoggerWithWriter(file, config)
	z.file = file
	return z, nil
}

// NewLoggerWithWriter creates a ZerologLogger writing JSON lines to w.
func NewLoggerWithWriter(w io.Writer, config *LoggerConfig) *ZerologLogger {
	// keep the global level open so the per-instance level decides
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := zerolog.New(w).With().
		Timestamp().
		Str("service", config.ServiceName).
		Str("logger", config.LoggerName).
		Logger().
		Level(levelToZerolog(config.Level))

	return &ZerologLogger{
		logger:   logger,
		level:    config.Level,
		fields:   make(Fields),
		errorKey: "error",
		config:   config,
	}
}

// Close closes the log file, if any
func (z *ZerologLogger) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.file != nil {
		err := z.file.Close()
		z.file = nil
		return err
	}
	return nil
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.level = level
	z.logger = z.logger.Level(levelToZerolog(level))
}

func (z *ZerologLogger) GetLevel() Level {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.level
}

func (z *ZerologLogger) IsLevelEnabled(level Level) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return level >= z.level
}

func levelToZerolog(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// getEvent creates a zerolog event carrying the logger's fields
func (z *ZerologLogger) getEvent(level Level) *zerolog.Event {
	z.mu.RLock()
	defer z.mu.RUnlock()

	var event *zerolog.Event
	switch level {
	case DebugLevel:
		event = z.logger.Debug()
	case WarnLevel:
		event = z.logger.Warn()
	case ErrorLevel:
		event = z.logger.Error()
	case FatalLevel:
		event = z.logger.Fatal()
	default:
		event = z.logger.Info()
	}

	for key, value := range z.fields {
		event = event.Interface(key, value)
	}
	return event
}

func (z *ZerologLogger) log(level Level, msg string) {
	if level != FatalLevel && !z.IsLevelEnabled(level) {
		return
	}
	z.getEvent(level).Msg(msg)
}

func (z *ZerologLogger) Debug(msg string) { z.log(DebugLevel, msg) }
func (z *ZerologLogger) Info(msg string)  { z.log(InfoLevel, msg) }
func (z *ZerologLogger) Warn(msg string)  { z.log(WarnLevel, msg) }
func (z *ZerologLogger) Error(msg string) { z.log(ErrorLevel, msg) }
func (z *ZerologLogger) Fatal(msg string) { z.log(FatalLevel, msg) }

func (z *ZerologLogger) Debugf(format string, args ...interface{}) {
	if !z.IsLevelEnabled(DebugLevel) {
		return
	}
	z.log(DebugLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Infof(format string, args ...interface{}) {
	if !z.IsLevelEnabled(InfoLevel) {
		return
	}
	z.log(InfoLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Warnf(format string, args ...interface{}) {
	if !z.IsLevelEnabled(WarnLevel) {
		return
	}
	z.log(WarnLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Errorf(format string, args ...interface{}) {
	if !z.IsLevelEnabled(ErrorLevel) {
		return
	}
	z.log(ErrorLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Fatalf(format string, args ...interface{}) {
	z.log(FatalLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Debugw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Debug(msg)
}

func (z *ZerologLogger) Infow(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Info(msg)
}

func (z *ZerologLogger) Warnw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Warn(msg)
}

func (z *ZerologLogger) Errorw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Error(msg)
}

func (z *ZerologLogger) WithFields(fields Fields) Logger {
	newLogger := z.Clone().(*ZerologLogger)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		newLogger.fields[k] = v
	}
	return newLogger
}

func (z *ZerologLogger) WithField(key string, value interface{}) Logger {
	return z.WithFields(Fields{key: value})
}

func (z *ZerologLogger) WithError(err error) Logger {
	if err == nil {
		return z
	}
	return z.WithField(z.errorKey, err.Error())
}

// Clone creates a copy of the logger sharing the same output
func (z *ZerologLogger) Clone() Logger {
	z.mu.RLock()
	defer z.mu.RUnlock()

	newFields := make(Fields, len(z.fields))
	for k, v := range z.fields {
		newFields[k] = v
	}

	return &ZerologLogger{
		logger:   z.logger,
		level:    z.level,
		fields:   newFields,
		errorKey: z.errorKey,
		config:   z.config,
		file:     z.file,
	}
}

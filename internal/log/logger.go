// SPDX-License-Identifier: MIT
package log

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// zapLevel maps a LogLevel onto the zap level of the same severity.
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

// currentLevel mirrors atomLevel so GetLevel does not need to map back from zap.
var currentLevel atomic.Uint32

var atomLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// sugar is the process-wide logger. It writes console-encoded lines to stderr.
var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), atomLevel)
	setCore(core)
	SetLevel(LevelInfo)
}

// setCore swaps the backing core. Tests use it to capture output.
func setCore(core zapcore.Core) {
	sugar.Store(zap.New(core).Sugar())
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
	atomLevel.SetLevel(level.zapLevel())
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// shouldLog checks if a message at the given level should be logged based on the current global level.
func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

// Sync flushes buffered log entries. Call it before the process exits.
func Sync() error {
	return sugar.Load().Sync()
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...interface{}) {
	if shouldLog(LevelDebug) {
		sugar.Load().Debugf(format, v...)
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...interface{}) {
	if shouldLog(LevelInfo) {
		sugar.Load().Infof(format, v...)
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...interface{}) {
	if shouldLog(LevelWarn) {
		sugar.Load().Warnf(format, v...)
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...interface{}) {
	if shouldLog(LevelError) {
		sugar.Load().Errorf(format, v...)
	}
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...interface{}) {
	sugar.Load().Fatalf(format, v...)
}

// --- Functions without formatting (convenience) ---

// Debug logs a debug message if the level is appropriate.
func Debug(v ...interface{}) {
	if shouldLog(LevelDebug) {
		sugar.Load().Debug(v...)
	}
}

// Info logs an info message if the level is appropriate.
func Info(v ...interface{}) {
	if shouldLog(LevelInfo) {
		sugar.Load().Info(v...)
	}
}

// Warn logs a warning message if the level is appropriate.
func Warn(v ...interface{}) {
	if shouldLog(LevelWarn) {
		sugar.Load().Warn(v...)
	}
}

// Error logs an error message if the level is appropriate.
func Error(v ...interface{}) {
	if shouldLog(LevelError) {
		sugar.Load().Error(v...)
	}
}

// Fatal logs a fatal message and exits the application.
func Fatal(v ...interface{}) {
	sugar.Load().Fatal(v...)
}

// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// Level defines the severity of a log message.
type Level uint32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the Level.
func (l Level) String() string {
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

// ParseLevel converts a string (case-insensitive) to a Level.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (Level, bool) {
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

// currentLevel holds the global log level atomically, so the level can be
// changed while the analysis loop is running.
var currentLevel atomic.Uint32

var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level.
func SetLevel(level Level) {
	currentLevel.Store(uint32(level))
}

// GetLevel returns the current global logging level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

func shouldLog(level Level) bool {
	return level >= GetLevel()
}

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	if shouldLog(LevelDebug) {
		logger.Printf("[%s] %s", LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	if shouldLog(LevelInfo) {
		logger.Printf("[%s]  %s", LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	if shouldLog(LevelWarn) {
		logger.Printf("[%s]  %s", LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	if shouldLog(LevelError) {
		logger.Printf("[%s] %s", LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal message and exits. Fatal messages are always
// logged regardless of the current level.
func Fatalf(format string, v ...any) {
	logger.Fatalf("[%s] %s", LevelFatal, fmt.Sprintf(format, v...))
}

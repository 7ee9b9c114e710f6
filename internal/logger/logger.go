// Package logger provides leveled printf-style logging for the pipeline.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type leveledLogger struct {
	level Level
	out   *log.Logger
}

var defaultLogger = &leveledLogger{
	level: InfoLevel,
	out:   log.New(os.Stderr, "", log.LstdFlags),
}

// Init configures the default logger. Format "text" adds source file
// locations; anything else keeps the compact default.
func Init(level string, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	defaultLogger = &leveledLogger{
		level: ParseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

func logAt(level Level, tag, format string, args ...any) {
	if defaultLogger.level > level {
		return
	}
	_ = defaultLogger.out.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...any) {
	logAt(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...any) {
	logAt(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...any) {
	logAt(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...any) {
	logAt(ErrorLevel, "[ERROR] ", format, args...)
}

// Fatal logs at error level and exits.
func Fatal(format string, args ...any) {
	_ = defaultLogger.out.Output(3, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}

// Package log provides a leveled structured logger. Every log call
// takes a source tag (usually the object doing the logging) that is
// attached to the record.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

type Level int

const LevelTrace Level = -8
const LevelDebug Level = -4
const LevelInfo Level = 0
const LevelWarn Level = 4
const LevelError Level = 8
const LevelFatal Level = 12

// ParseLevel parses a string representation of a log level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

func (level Level) String() string {
	switch level {
	case LevelTrace:
		return "TRACE"
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

type Logger struct {
	slog  *slog.Logger
	level atomic.Int32
}

var defaultLogger = func() *Logger {
	l := &Logger{}
	l.slog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(LevelTrace),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Value = slog.StringValue(Level(a.Value.Any().(slog.Level)).String())
			}
			return a
		},
	}))
	return l
}()

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) log(level Level, src any, msg string, args ...any) {
	if level < l.Level() {
		return
	}
	if src != nil {
		args = append([]any{"src", fmt.Sprintf("%v", src)}, args...)
	}
	l.slog.Log(context.Background(), slog.Level(level), msg, args...)
}

func Trace(src any, msg string, args ...any) {
	defaultLogger.log(LevelTrace, src, msg, args...)
}

func Debug(src any, msg string, args ...any) {
	defaultLogger.log(LevelDebug, src, msg, args...)
}

func Info(src any, msg string, args ...any) {
	defaultLogger.log(LevelInfo, src, msg, args...)
}

func Warn(src any, msg string, args ...any) {
	defaultLogger.log(LevelWarn, src, msg, args...)
}

func Error(src any, msg string, args ...any) {
	defaultLogger.log(LevelError, src, msg, args...)
}

// Fatal logs the message and terminates the process.
func Fatal(src any, msg string, args ...any) {
	defaultLogger.log(LevelFatal, src, msg, args...)
	time.Sleep(10 * time.Millisecond) // flush
	os.Exit(1)
}

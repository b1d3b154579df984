// Package logger provides the package-level structured logger used
// throughout the compiler and evaluator. The teacher's pkg/logger is a
// bespoke atomic-level wrapper around the standard log package,
// written that way because it ships as source into Traefik's Yaegi
// interpreter, which cannot link third-party packages. This module has
// no such constraint, so the same level constants and call-site shape
// (Debugf, Tracef, SetLevel, IsDebugEnabled, ...) are kept but backed
// by github.com/rs/zerolog.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var currentLevel atomic.Int32

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

func init() {
	currentLevel.Store(int32(InfoLevel))
}

func toZerolog(l LogLevel) zerolog.Level {
	switch l {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// SetLevel sets the global log level.
func SetLevel(level LogLevel) {
	currentLevel.Store(int32(level))
}

// ParseLevel parses a string log level.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, errInvalidLevel(level)
	}
}

type errInvalidLevel string

func (e errInvalidLevel) Error() string { return "invalid log level: " + string(e) }

// shouldLog reports whether a message at the given level should be logged.
func shouldLog(level LogLevel) bool {
	return level >= LogLevel(currentLevel.Load())
}

// IsTraceEnabled reports whether trace logging is enabled.
func IsTraceEnabled() bool {
	return LogLevel(currentLevel.Load()) <= TraceLevel
}

// IsDebugEnabled reports whether debug logging is enabled.
func IsDebugEnabled() bool {
	return LogLevel(currentLevel.Load()) <= DebugLevel
}

func event(level LogLevel) *zerolog.Event {
	return base.WithLevel(toZerolog(level))
}

func Trace(args ...interface{}) {
	if shouldLog(TraceLevel) {
		event(TraceLevel).Msg(sprintArgs(args))
	}
}

func Tracef(format string, args ...interface{}) {
	if shouldLog(TraceLevel) {
		event(TraceLevel).Msgf(format, args...)
	}
}

func Debug(args ...interface{}) {
	if shouldLog(DebugLevel) {
		event(DebugLevel).Msg(sprintArgs(args))
	}
}

func Debugf(format string, args ...interface{}) {
	if shouldLog(DebugLevel) {
		event(DebugLevel).Msgf(format, args...)
	}
}

func Info(args ...interface{}) {
	if shouldLog(InfoLevel) {
		event(InfoLevel).Msg(sprintArgs(args))
	}
}

func Infof(format string, args ...interface{}) {
	if shouldLog(InfoLevel) {
		event(InfoLevel).Msgf(format, args...)
	}
}

func Warn(args ...interface{}) {
	if shouldLog(WarnLevel) {
		event(WarnLevel).Msg(sprintArgs(args))
	}
}

func Warnf(format string, args ...interface{}) {
	if shouldLog(WarnLevel) {
		event(WarnLevel).Msgf(format, args...)
	}
}

func Error(args ...interface{}) {
	if shouldLog(ErrorLevel) {
		event(ErrorLevel).Msg(sprintArgs(args))
	}
}

func Errorf(format string, args ...interface{}) {
	if shouldLog(ErrorLevel) {
		event(ErrorLevel).Msgf(format, args...)
	}
}

// WithField formats a single structured field onto the next log line.
// Kept as a helper (rather than switching call sites to zerolog's
// native .Str()/.Int() chaining) so every ported call site that built
// ad hoc "key=value" message suffixes keeps working unchanged.
func WithField(key string, value interface{}) string {
	return key + "=" + sprintArgs([]interface{}{value})
}

// WithError formats an error for inclusion in a message, or "" if nil.
func WithError(err error) string {
	if err == nil {
		return ""
	}
	return "error=" + err.Error()
}

func sprintArgs(args []interface{}) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	out := make([]byte, 0, 32)
	for i, a := range args {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, []byte(toString(a))...)
	}
	return string(out)
}

func toString(a interface{}) string {
	if s, ok := a.(string); ok {
		return s
	}
	if e, ok := a.(error); ok {
		return e.Error()
	}
	if s, ok := a.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", a)
}

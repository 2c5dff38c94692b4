package logger

import (
	"fmt"
	"time"
)

// logEntry represents a single log line at a particular level, ready to be
// written out by the Backend's writers.
type logEntry struct {
	level Level
	log   []byte
}

// Logger writes log messages for a particular subsystem to an underlying
// Backend. It filters out messages below its configured level.
type Logger struct {
	lvl          Level
	subsystemTag string
	b            *Backend
	writeChan    chan logEntry
}

// Level returns the current logging level of the logger.
func (l *Logger) Level() Level {
	return Level(l.lvl)
}

// SetLevel changes the logging level of the logger.
func (l *Logger) SetLevel(level Level) {
	l.lvl = level
}

func (l *Logger) write(level Level, s string) {
	if level < l.lvl {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, level, l.subsystemTag, s)
	l.writeChan <- logEntry{level: level, log: []byte(line)}
}

// Tracef formats and logs a message at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, fmt.Sprintf(format, args...))
}

// Trace logs a message at the trace level.
func (l *Logger) Trace(args ...interface{}) {
	l.write(LevelTrace, fmt.Sprint(args...))
}

// Debugf formats and logs a message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, args...))
}

// Debug logs a message at the debug level.
func (l *Logger) Debug(args ...interface{}) {
	l.write(LevelDebug, fmt.Sprint(args...))
}

// Infof formats and logs a message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Info logs a message at the info level.
func (l *Logger) Info(args ...interface{}) {
	l.write(LevelInfo, fmt.Sprint(args...))
}

// Warnf formats and logs a message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

// Warn logs a message at the warn level.
func (l *Logger) Warn(args ...interface{}) {
	l.write(LevelWarn, fmt.Sprint(args...))
}

// Errorf formats and logs a message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

// Error logs a message at the error level.
func (l *Logger) Error(args ...interface{}) {
	l.write(LevelError, fmt.Sprint(args...))
}

// Criticalf formats and logs a message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, fmt.Sprintf(format, args...))
}

// Critical logs a message at the critical level.
func (l *Logger) Critical(args ...interface{}) {
	l.write(LevelCritical, fmt.Sprint(args...))
}

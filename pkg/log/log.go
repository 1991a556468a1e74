package log

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

type LogLevel string

const (
	FatalLevel    LogLevel = "fatal"
	ErrorLevel    LogLevel = "error"
	WarningLevel  LogLevel = "warn"
	InfoLevel     LogLevel = "info"
	DebugLevel    LogLevel = "debug"
	TraceLevel    LogLevel = "trace"
	DisabledLevel LogLevel = "disabled"
)

var levelmap = map[LogLevel]int{
	TraceLevel:    5,
	DebugLevel:    4,
	InfoLevel:     3,
	WarningLevel:  2,
	ErrorLevel:    1,
	FatalLevel:    0,
	DisabledLevel: -1,
}

type logWrapper struct {
	mu  sync.Mutex
	log *log.Logger
}

func (l *logWrapper) Println(level LogLevel, args ...any) {
	if !ShouldLog(level, GetLevel()) {
		return
	}
	ts := time.Now().Local()
	timeStr := fmt.Sprintf("%s.%03d", ts.Format("2006-01-02 15:04:05"), ts.Nanosecond()/1000000)
	levelStr := fmt.Sprintf("- %5s -", level)
	allArgs := []any{timeStr, levelStr}
	allArgs = append(allArgs, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Println(allArgs...)
}

func (l *logWrapper) Printf(level LogLevel, format string, args ...any) {
	if !ShouldLog(level, GetLevel()) {
		return
	}
	l.Println(level, fmt.Sprintf(format, args...))
}

func (l *logWrapper) setOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = log.New(w, "", 0)
}

var (
	stdoutLog = &logWrapper{log: log.New(os.Stdout, "", 0)}
	stderrLog = &logWrapper{log: log.New(os.Stderr, "", 0)}
)

var (
	levelMu sync.RWMutex
	level   = InfoLevel
)

// SetLevel changes the global log level.
func SetLevel(loglevel LogLevel) error {
	if !ValidLogLevel(loglevel) {
		return fmt.Errorf("no such log level %s", loglevel)
	}

	levelMu.Lock()
	defer levelMu.Unlock()
	level = loglevel
	return nil
}

func GetLevel() LogLevel {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return level
}

// ParseLevel accepts a level name in any case.
func ParseLevel(name string) (LogLevel, error) {
	l := LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if l == "warning" {
		l = WarningLevel
	}
	if !ValidLogLevel(l) {
		return "", fmt.Errorf("no such log level %s", name)
	}
	return l, nil
}

// SetOutput redirects both log streams. A nil writer restores the default.
func SetOutput(stdout, stderr io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	stdoutLog.setOutput(stdout)
	stderrLog.setOutput(stderr)
}

func ValidLogLevel(level LogLevel) bool {
	_, ok := levelmap[level]
	return ok
}

func ShouldLog(logLevel, enabled LogLevel) bool {
	if !ValidLogLevel(logLevel) || !ValidLogLevel(enabled) {
		return false
	}
	return levelmap[logLevel] <= levelmap[enabled]
}

func Log(level LogLevel, msg string, args ...interface{}) {
	switch level {
	case TraceLevel, DebugLevel, InfoLevel:
		stdoutLog.Printf(level, msg, args...)
	case WarningLevel, ErrorLevel:
		stderrLog.Printf(level, msg, args...)
	case FatalLevel:
		Fatalf(msg, args...)
	}
}

func Trace(args ...interface{}) {
	stdoutLog.Println(TraceLevel, args...)
}

func Debug(args ...interface{}) {
	stdoutLog.Println(DebugLevel, args...)
}

func Info(args ...interface{}) {
	stdoutLog.Println(InfoLevel, args...)
}

func Warn(args ...interface{}) {
	stderrLog.Println(WarningLevel, args...)
}

func Error(args ...interface{}) {
	stderrLog.Println(ErrorLevel, args...)
}

func Fatal(args ...interface{}) {
	stderrLog.Println(FatalLevel, args...)
	debug.PrintStack()
	os.Exit(1)
}

func Tracef(format string, args ...interface{}) {
	stdoutLog.Printf(TraceLevel, format, args...)
}

func Debugf(format string, args ...interface{}) {
	stdoutLog.Printf(DebugLevel, format, args...)
}

func Infof(format string, args ...interface{}) {
	stdoutLog.Printf(InfoLevel, format, args...)
}

func Warnf(format string, args ...interface{}) {
	stderrLog.Printf(WarningLevel, format, args...)
}

func Errorf(format string, args ...interface{}) {
	stderrLog.Printf(ErrorLevel, format, args...)
}

func Fatalf(format string, args ...interface{}) {
	stderrLog.Printf(FatalLevel, format, args...)
	debug.PrintStack()
	os.Exit(1)
}

type writeFunc func([]byte) (int, error)

func (fn writeFunc) Write(data []byte) (int, error) {
	return fn(data)
}

// NewLogWriter returns a writer that logs every write at the given level,
// one record per line.
func NewLogWriter(level LogLevel) io.Writer {
	return writeFunc(func(data []byte) (int, error) {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			Log(level, "%s", line)
		}
		return len(data), nil
	})
}

func DebugError(err error) {
	indent := 1

	Debug(err.Error())

	for {
		if err = errors.Unwrap(err); err == nil {
			break
		}

		Debugf("| %d: %s", indent, err.Error())
		indent += 1
	}
}

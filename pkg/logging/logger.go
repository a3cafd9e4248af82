// Package logging provides a small leveled logger on top of the standard log package.
// Level prefixes are coloured with fatih/color unless colour is disabled.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level defines the logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a configuration string to a Level. Unknown values yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

// Logger writes leveled messages through one *log.Logger per level.
type Logger struct {
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	level Level
	mu    sync.Mutex
}

// Options configures a Logger.
type Options struct {
	Level  Level
	Color  bool
	Prefix string // component prefix such as "[dispatcher] "

	// Timestamps adds log.LstdFlags to every line.
	Timestamps bool
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *Logger {
	if w == nil {
		w = os.Stderr
	}
	flags := 0
	if opts.Timestamps {
		flags = log.LstdFlags
	}
	prefix := func(name string, paint func(format string, a ...interface{}) string) string {
		p := name + ": "
		if opts.Color {
			p = paint("%s", p)
		}
		return p + opts.Prefix
	}
	return &Logger{
		debug: log.New(w, prefix("DEBUG", color.BlueString), flags),
		info:  log.New(w, prefix("INFO", color.GreenString), flags),
		warn:  log.New(w, prefix("WARN", color.YellowString), flags),
		err:   log.New(w, prefix("ERROR", color.RedString), flags),
		level: opts.Level,
	}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns a process-wide logger writing to stderr at info level.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(os.Stderr, Options{Level: LevelInfo, Color: !color.NoColor, Timestamps: true})
	})
	return defaultLogger
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, Options{Level: LevelError + 1})
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	return l.level
}

// Enabled reports whether messages at lvl are written.
func (l *Logger) Enabled(lvl Level) bool {
	return lvl >= l.level
}

func (l *Logger) printf(lvl Level, target *log.Logger, format string, v ...interface{}) {
	if !l.Enabled(lvl) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = target.Output(3, sprintf(format, v...))
}

// Debugf logs a formatted message at the DEBUG level
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.printf(LevelDebug, l.debug, format, v...)
}

// Infof logs a formatted message at the INFO level
func (l *Logger) Infof(format string, v ...interface{}) {
	l.printf(LevelInfo, l.info, format, v...)
}

// Printf is an alias of Infof so the logger can stand in for *log.Logger call sites.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.printf(LevelInfo, l.info, format, v...)
}

// Warnf logs a formatted message at the WARN level
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.printf(LevelWarn, l.warn, format, v...)
}

// Errorf logs a formatted message at the ERROR level
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.printf(LevelError, l.err, format, v...)
}

// Std returns a *log.Logger that writes at info level, for APIs such as http.Server.ErrorLog.
func (l *Logger) Std() *log.Logger {
	return l.info
}

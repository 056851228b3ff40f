// Package logging provides diagnostic log output for rpcframe.
//
// Logs always go to a side channel (stderr by default, or a rotating file),
// never to the stream carrying framed messages: a stray byte on stdout would
// corrupt the stdio transport.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger writes leveled lines: LEVEL TIMESTAMP [component] message key=value ...
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
	zl        zerolog.Logger
}

// New creates a Logger writing to stderr at INFO.
func New() *Logger {
	l := &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stderr,
		minLevel: LevelInfo,
	}
	l.rebuild()
	return l
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	c := l.clone()
	c.component = component
	c.rebuild()
	return c
}

// WithTraceID returns a new logger with the given trace ID, typically the
// connection ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	c := l.clone()
	c.traceID = traceID
	c.rebuild()
	return c
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
	l.rebuild()
}

// SetOutput sets the output writer (default: stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// Level returns the minimum log level.
func (l *Logger) Level() Level {
	return l.minLevel
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

func (l *Logger) clone() *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		traceID:   l.traceID,
	}
}

func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:        &lockedWriter{mu: l.mu, w: l.output},
		NoColor:    true,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("%-5s", strings.ToUpper(fmt.Sprint(i)))
		},
	}
	ctx := zerolog.New(cw).Level(l.minLevel.zerolog()).With().Timestamp()
	if l.traceID != "" {
		ctx = ctx.Str("trace", l.traceID)
	}
	l.zl = ctx.Logger()
}

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	ev := l.zl.WithLevel(level.zerolog())
	if ev == nil {
		return
	}
	if len(fields) > 0 && fields[0] != nil {
		ev = ev.Fields(fields[0])
	}
	if l.component != "" {
		msg = "[" + l.component + "] " + msg
	}
	ev.Msg(msg)
}

// lockedWriter serializes writes from loggers sharing one output.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// --- Transport event logging ---
// Called by the codec and transport goroutines.

// FrameRead logs a decoded inbound frame.
func (l *Logger) FrameRead(kind string, size int) {
	l.Debug("frame_read", map[string]interface{}{
		"kind":  kind,
		"bytes": size,
	})
}

// FrameWritten logs an encoded outbound frame.
func (l *Logger) FrameWritten(kind string, size int) {
	l.Debug("frame_written", map[string]interface{}{
		"kind":  kind,
		"bytes": size,
	})
}

// ThreadExit logs the end of a reader or writer goroutine.
func (l *Logger) ThreadExit(thread string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"thread":   thread,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("thread_exit", fields)
		return
	}
	l.Debug("thread_exit", fields)
}

// ShutdownState logs a shutdown handshake transition.
func (l *Logger) ShutdownState(from, to string) {
	l.Info("shutdown_state", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// Default returns the process-wide logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

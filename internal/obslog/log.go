// Package obslog wraps zap behind a small logging interface shared by the
// coordinator, signer, and relay packages, so swapping the underlying
// logger never touches call sites.
package obslog

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface every package in this module depends on.
type Logger interface {
	Debug(keyvals ...interface{})
	Info(keyvals ...interface{})
	Warn(keyvals ...interface{})
	Error(keyvals ...interface{})
	With(args ...interface{}) Logger
	Named(name string) Logger
}

type log struct {
	*zap.SugaredLogger
}

func (l *log) Debug(keyvals ...interface{}) { l.SugaredLogger.Debugw(msgOf(keyvals), rest(keyvals)...) }
func (l *log) Info(keyvals ...interface{})  { l.SugaredLogger.Infow(msgOf(keyvals), rest(keyvals)...) }
func (l *log) Warn(keyvals ...interface{})  { l.SugaredLogger.Warnw(msgOf(keyvals), rest(keyvals)...) }
func (l *log) Error(keyvals ...interface{}) { l.SugaredLogger.Errorw(msgOf(keyvals), rest(keyvals)...) }

// msgOf and rest split a call site's (msg, key, val, key, val, ...)
// arguments for the *w zap methods, which take the message and the
// keyvals separately instead of as one flat slice.
func msgOf(keyvals []interface{}) string {
	if len(keyvals) == 0 {
		return ""
	}
	if msg, ok := keyvals[0].(string); ok {
		return msg
	}
	return fmt.Sprint(keyvals[0])
}

func rest(keyvals []interface{}) []interface{} {
	if len(keyvals) <= 1 {
		return nil
	}
	return keyvals[1:]
}

func (l *log) With(args ...interface{}) Logger {
	return &log{l.SugaredLogger.With(args...)}
}

func (l *log) Named(name string) Logger {
	return &log{l.SugaredLogger.Named(name)}
}

const (
	DebugLevel = int(zapcore.DebugLevel)
	InfoLevel  = int(zapcore.InfoLevel)
	WarnLevel  = int(zapcore.WarnLevel)
	ErrorLevel = int(zapcore.ErrorLevel)
)

var defaultMu sync.Mutex

// New builds a logger at the given level, JSON-encoded unless console is true.
func New(level int, console bool) Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if console {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.Level(level))
	return &log{zap.New(core, zap.WithCaller(true)).Sugar()}
}

var defaultLogger Logger

// Default returns the process-wide default logger, initializing it to a
// JSON-encoded Info-level logger on first use.
func Default() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(InfoLevel, false)
	}
	return defaultLogger
}

// Init replaces the process-wide default logger. Called once at the start
// of every cmd/ entry point, mirroring the original signer/coordinator
// binaries' logging bootstrap call order.
func Init(level int, console bool) Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = New(level, console)
	return defaultLogger
}

package logger

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wxnow/internal/printer"
)

type Options struct {
	Level string    // "debug","info","warn","error"
	Out   io.Writer // default os.Stderr
}

var (
	mu       sync.RWMutex
	zlog     *zap.SugaredLogger
	out      io.Writer = os.Stderr
	p        *printer.ColorPrinter
	curLevel = zapcore.WarnLevel
	ready    atomic.Bool
)

// Configure sets up the global logger. Diagnostics always go to stderr so
// stdout carries only the result line.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()
	configureLocked(opts)
}

func configureLocked(opts Options) {
	if opts.Out != nil {
		out = opts.Out
	}

	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{MessageKey: "msg"})
	level := parseLevel(opts.Level)
	ws := zapcore.AddSync(writerAdapter{out})
	core := zapcore.NewCore(enc, ws, level)

	zlog = zap.New(core).Sugar()

	if p == nil {
		p = printer.NewColorPrinter()
	}

	ready.Store(true)
}

// SetLevel adjusts the current level at runtime ("debug","info","warn","error").
func SetLevel(level string) {
	Configure(Options{Level: level, Out: out})
}

// UseTestMode silences logs during tests.
func UseTestMode() {
	Configure(Options{
		Level: "error",
		Out:   io.Discard,
	})
}

func Debug(msg string, args ...interface{}) {
	if !ensureReady() {
		return
	}
	mu.RLock()
	zlog.Debugf(p.Debug(msg, args...))
	mu.RUnlock()
}

func Info(msg string, args ...interface{}) {
	if !ensureReady() {
		return
	}
	mu.RLock()
	zlog.Infof(p.Info(msg, args...))
	mu.RUnlock()
}

func Warn(msg string, args ...interface{}) {
	if !ensureReady() {
		return
	}
	mu.RLock()
	zlog.Warnf(p.Warning(msg, args...))
	mu.RUnlock()
}

func Error(msg string, args ...interface{}) {
	if !ensureReady() {
		return
	}
	mu.RLock()
	zlog.Errorf(p.Error(msg, args...))
	mu.RUnlock()
}

type writerAdapter struct{ w io.Writer }

func (wa writerAdapter) Write(b []byte) (int, error) { return wa.w.Write(b) }

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		curLevel = zapcore.DebugLevel
	case "info":
		curLevel = zapcore.InfoLevel
	case "warn", "":
		curLevel = zapcore.WarnLevel
	case "error":
		curLevel = zapcore.ErrorLevel
	default:
		curLevel = zapcore.WarnLevel
	}
	return curLevel
}

func ensureReady() bool {
	if !ready.Load() {
		mu.Lock()
		if !ready.Load() {
			configureLocked(Options{})
		}
		mu.Unlock()
	}
	mu.RLock()
	ok := zlog != nil && p != nil
	mu.RUnlock()
	return ok
}

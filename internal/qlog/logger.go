// Package qlog provides structured logging for the engine runtime using zap.
package qlog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with engine-specific field helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance, set by Init.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger. Safe to call multiple times; only
// the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a Logger at development or production verbosity.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything, used as the Heap/Thread
// default when no logger is configured.
func Nop() *Logger { return &Logger{Logger: zap.NewNop()} }

// WithCategory returns a logger with a "cat" field preset, used to tag
// subsystem-scoped loggers (gc, call, env, strtab, ...).
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("cat", category))}
}

// GC logs a garbage-collection cycle outcome.
func (l *Logger) GC(emergency bool, freed, finalized int) {
	l.Debug("gc",
		zap.Bool("emergency", emergency),
		zap.Int("freed", freed),
		zap.Int("finalized", finalized),
	)
}

// Thrown logs an error propagating out of the engine, at the point it is
// first constructed.
func (l *Logger) Thrown(kind string, msg string) {
	l.Debug("thrown", zap.String("kind", kind), zap.String("msg", msg))
}

// Kind creates a field for a heap or value kind tag.
func Kind(name string, kind uint8) zap.Field {
	return zap.Uint8(name, kind)
}

// Ptr creates a field for an opaque pointer value, rendered as hex.
func Ptr(name string, addr uintptr) zap.Field {
	return zap.String(name, hex(uint64(addr)))
}

// Bytes creates a field for a byte-count quantity.
func Bytes(name string, n int) zap.Field {
	return zap.Int(name, n)
}

func hex(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	buf := make([]byte, 18)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	i -= 2
	buf[i], buf[i+1] = '0', 'x'
	return string(buf[i:])
}

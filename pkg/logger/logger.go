package logger

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	ServiceName string
	Development bool
}

// Logger is a structured logger taking alternating key/value pairs
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	global *Logger
	mu     sync.RWMutex
)

// New builds a Logger from cfg
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info"}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName != "" {
		z = z.With(zap.String("service", cfg.ServiceName))
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Init sets the global logger
func Init(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// Get returns the global logger, or a no-op logger before Init
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return NewNop()
	}
	return global
}

// Sync flushes the global logger
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if global != nil {
		_ = global.sugar.Sync()
	}
}

// With returns a child logger with the given key/value pairs attached
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// ErrorContext logs at error level with the trace id from ctx attached
func (l *Logger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		keysAndValues = append(keysAndValues, "trace_id", sc.TraceID().String())
	}
	l.sugar.Errorw(msg, keysAndValues...)
}

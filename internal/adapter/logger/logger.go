package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
	Sync() error
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a JSON logger on stdout. Every entry carries the service and
// hostname; debug entries are dropped unless debug is set.
func New(service string, debug bool) Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableCaller = true
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return newWithZap(z, service)
}

func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func newWithZap(z *zap.Logger, service string) Logger {
	hostname, _ := os.Hostname()
	return &zapLogger{z: z.With(zap.String("service", service), zap.String("hostname", hostname))}
}

func (l *zapLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.z.Info(message, fields(action, requestID, details)...)
}

func (l *zapLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.z.Debug(message, fields(action, requestID, details)...)
}

func (l *zapLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	fs := fields(action, requestID, details)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.z.Error(message, fs...)
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

func fields(action, requestID string, details map[string]interface{}) []zap.Field {
	fs := make([]zap.Field, 0, 4)
	fs = append(fs, zap.String("action", action))
	if requestID != "" {
		fs = append(fs, zap.String("request_id", requestID))
	}
	if len(details) > 0 {
		fs = append(fs, zap.Any("details", details))
	}
	return fs
}

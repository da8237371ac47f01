// Package zapfactory builds the zap backend for the logger abstraction.
package zapfactory

import (
	"fmt"
	"os"

	"apigw-exporter/internal/config"
	"apigw-exporter/internal/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New constructs a *zap.Logger from the logger configuration. Output goes
// to stderr, plus a lumberjack-rotated file when a path is configured.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Encoding {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log encoding %q", cfg.Encoding)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if cfg.File.Path != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), nil
}

// Adapter exposes a *zap.Logger through the logger.Logger interface.
type Adapter struct {
	l *zap.Logger
}

// NewZapAdapter wraps an existing zap logger.
func NewZapAdapter(l *zap.Logger) *Adapter {
	return &Adapter{l: l}
}

func (a *Adapter) Debug(msg string, fields ...logger.Field) { a.l.Debug(msg, zfields(fields)...) }
func (a *Adapter) Info(msg string, fields ...logger.Field)  { a.l.Info(msg, zfields(fields)...) }
func (a *Adapter) Warn(msg string, fields ...logger.Field)  { a.l.Warn(msg, zfields(fields)...) }
func (a *Adapter) Error(msg string, fields ...logger.Field) { a.l.Error(msg, zfields(fields)...) }

func (a *Adapter) Named(name string) logger.Logger {
	return &Adapter{l: a.l.Named(name)}
}

func (a *Adapter) With(fields ...logger.Field) logger.Logger {
	return &Adapter{l: a.l.With(zfields(fields)...)}
}

func zfields(fields []logger.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

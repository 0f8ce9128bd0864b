package logging

import (
	"context"
	"io"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap sugared logger to Logger. The context is accepted
// for interface parity; zap does not read it.
type ZapLogger struct {
	l *zap.SugaredLogger
}

func NewZapLogger(l *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{l: l}
}

func (z *ZapLogger) Debug(_ context.Context, msg string, args ...any) {
	z.l.Debugw(msg, args...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, args ...any) {
	z.l.Infow(msg, args...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, args ...any) {
	z.l.Warnw(msg, args...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, args ...any) {
	z.l.Errorw(msg, args...)
}

func (z *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{l: z.l.With(args...)}
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}

func zapLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewZapJSON builds a production-style zap logger: JSON encoder, ISO8601
// timestamps, caller info and stack traces from error level up.
func NewZapJSON(w io.Writer, level string) *ZapLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), zapLevel(level))
	return NewZapLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar())
}

// NewZapDev builds a development zap logger: human-readable console
// output, caller info and stack traces from warn level up.
func NewZapDev(w io.Writer, level string) *ZapLogger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapLevel(level))
	return NewZapLogger(zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel)).Sugar())
}

// rotatingFile opens a daily-rotated log file kept for a week. The pattern
// appends the date to path, and path itself links to the current file.
func rotatingFile(path string) (io.Writer, error) {
	return rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
}

// Options selects and configures a Logger implementation.
type Options struct {
	Backend string // "slog" or "zap"
	Level   string
	File    string // optional rotated log file, in addition to stdout
	Dev     bool   // zap development config
}

// New builds a Logger from Options. Output always goes to stdout; File adds
// a rotating file sink.
func New(o Options) (Logger, error) {
	var w io.Writer = os.Stdout
	if o.File != "" {
		f, err := rotatingFile(o.File)
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stdout, f)
	}

	switch o.Backend {
	case "zap":
		if o.Dev {
			return NewZapDev(w, o.Level), nil
		}
		return NewZapJSON(w, o.Level), nil
	default:
		return NewSlogJSON(w, o.Level), nil
	}
}

package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapAdapter wraps *zap.Logger to implement the Logger interface. Arguments
// are interpreted as alternating key/value pairs, like slog.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a Logger from *zap.Logger.
func NewZapAdapter(logger *zap.Logger) Logger {
	return &ZapAdapter{sugar: logger.Sugar()}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }

// Info logs an informational message.
func (z *ZapAdapter) Info(msg string, args ...any) { z.sugar.Infow(msg, args...) }

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, args ...any) { z.sugar.Warnw(msg, args...) }

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// With returns a copy that adds the key/value pairs to every entry.
func (z *ZapAdapter) With(args ...any) *ZapAdapter { return &ZapAdapter{sugar: z.sugar.With(args...)} }

// Sync flushes buffered log entries.
func (z *ZapAdapter) Sync() error { return z.sugar.Sync() }

// FileConfig configures a size-rotated log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewRotatingFile returns a writer that rotates the file at cfg.Path.
func NewRotatingFile(cfg FileConfig) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// ZapConfig configures NewZapLogger.
type ZapConfig struct {
	Level     LogLevel
	Format    string // json or console
	Output    io.Writer
	AddSource bool
	Name      string
	// File optionally tees JSON entries into a rotated log file.
	File *FileConfig
}

// NewZapLogger builds a zap logger writing to cfg.Output (stderr when nil) and,
// when configured, to a rotated JSON log file.
func NewZapLogger(cfg ZapConfig) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(out)), level),
	}

	if cfg.File != nil && cfg.File.Path != "" {
		fileWriter := zapcore.AddSync(NewRotatingFile(*cfg.File))
		cores = append(cores, zapcore.NewCore(zapEncoder("json"), fileWriter, level))
	}

	options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	logger := zap.New(zapcore.NewTee(cores...), options...)
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}
	return logger
}

func zapEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" || format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a
// LogLevel. Unknown names map to LogLevelInfo.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "warn", "WARN", "warning":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes where log lines go and which ones are kept.
type Config struct {
	// Level is the minimum severity written to any sink.
	Level Level

	// FilePath is an append-mode log file. Empty disables the file sink.
	// The parent directory is created when missing.
	FilePath string

	// Console receives a mirror of every line. Nil means os.Stderr; use
	// io.Discard to silence the console.
	Console io.Writer
}

// DefaultConfig mirrors the CLI defaults: INFO to logs/snapshot.log and stderr.
func DefaultConfig() Config {
	return Config{
		Level:    LevelInfo,
		FilePath: filepath.Join("logs", "snapshot.log"),
	}
}

// ZapLogger implements Logger on top of a zap core that tees to a file and
// the console. Lines look like:
//
//	2026-10-17 09:30:00,123 - INFO - capture started - {"url": "https://example.com"}
type ZapLogger struct {
	l    *zap.Logger
	file *os.File
}

// NewLogger builds the process-wide logging sink. Call Close when done so
// the file handle is flushed and released.
func NewLogger(cfg Config) (*ZapLogger, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05,000"),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(console), level),
	}

	var file *os.File
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level))
	}

	return &ZapLogger{l: zap.New(zapcore.NewTee(cores...)), file: file}, nil
}

func toZap(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (z *ZapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZap(fields)...) }
func (z *ZapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, toZap(fields)...) }
func (z *ZapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, toZap(fields)...) }
func (z *ZapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, toZap(fields)...) }

// With returns a child logger sharing the same sinks. Closing the child is a
// no-op; only the root owns the file.
func (z *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{l: z.l.With(toZap(fields)...)}
}

// Close flushes buffered entries and closes the log file if this logger owns it.
func (z *ZapLogger) Close() error {
	_ = z.l.Sync()
	if z.file != nil {
		err := z.file.Close()
		z.file = nil
		return err
	}
	return nil
}

package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is a severity threshold. Names follow the CLI's --log-level values.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// LevelNames lists the accepted --log-level values in ascending severity.
var LevelNames = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// ParseLevel maps a case-insensitive level name to a Level. "WARN" is
// accepted as an alias for WARNING.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (want one of %s)", s, strings.Join(LevelNames, ", "))
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelCritical {
		return fmt.Sprintf("Level(%d)", int8(l))
	}
	return LevelNames[l]
}

// zapLevel maps the threshold onto zap. CRITICAL sits on DPanic, which a
// production core never panics on; nothing here logs at that level, so a
// CRITICAL threshold silences the capture pipeline entirely.
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelCritical:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// encodeLevel writes level names the way the log file has always shown them.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	default:
		enc.AppendString("CRITICAL")
	}
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is usable before Init so packages can log from tests.
var Logger = slog.Default()

// Init installs a text handler on stderr, leaving stdout to the digest.
// LOG_LEVEL picks the level; DEBUG=true still forces debug output.
func Init() {
	InitWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"))
}

func InitWithWriter(w io.Writer, levelName string) {
	level := ParseLevel(levelName)
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	Logger = slog.New(slog.NewTextHandler(w, opts))
	slog.SetDefault(Logger)
}

// ParseLevel maps debug|info|warn|error onto slog levels, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

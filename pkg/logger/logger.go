package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

func init() {
	// Usable default so packages can log before main configures levels.
	Log = slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// Init initializes the global logger honoring the provided level string
// ("debug", "info", "warn", "error"). An empty level falls back to the
// TICKETDB_LOG_LEVEL env var, then to info. TICKETDB_LOG_SINK=file:<path>
// redirects output to a file.
func Init(level string) {
	sink := os.Getenv("TICKETDB_LOG_SINK")
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("TICKETDB_LOG_LEVEL")))
	}
	var lv slog.Level
	switch lvl {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	if strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lv}))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
	}
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

// Debug logs with slog-style key/value pairs.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Info logs with slog-style key/value pairs.
func Info(msg string, args ...any) { Log.Info(msg, args...) }

// Warn logs with slog-style key/value pairs.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs with slog-style key/value pairs.
func Error(msg string, args ...any) { Log.Error(msg, args...) }

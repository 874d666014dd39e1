package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: structured JSON on stdout. Level defaults
// to info; KITSTOCK_LOG_LEVEL=debug turns on debug logging.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("KITSTOCK_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

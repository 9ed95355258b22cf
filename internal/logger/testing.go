package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: WARN and above on stdout.
// Setting TEST_DEBUG lowers the level to DEBUG.
func NewTestLogger() *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Output: os.Stdout}
	if os.Getenv("TEST_DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLogger(cfg)
}

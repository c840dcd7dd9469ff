package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var logFile *os.File

var logger = slog.Default()

// initLogger sends log output to path and stderr. An empty path logs to
// stderr only.
func initLogger(path, level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		out = io.MultiWriter(f, os.Stderr)
	}

	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// logMsg logs a "LEVEL: message" line. Lines without a level prefix are INFO.
func logMsg(message string) {
	level, text := splitLevel(message)
	logger.Log(context.Background(), level, text)
}

func splitLevel(message string) (slog.Level, string) {
	prefixes := []struct {
		prefix string
		level  slog.Level
	}{
		{"FATAL:", slog.LevelError},
		{"ERROR:", slog.LevelError},
		{"WARNING:", slog.LevelWarn},
		{"INFO:", slog.LevelInfo},
		{"DEBUG:", slog.LevelDebug},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(message, p.prefix) {
			return p.level, strings.TrimSpace(strings.TrimPrefix(message, p.prefix))
		}
	}
	return slog.LevelInfo, message
}

// closeLogger syncs and closes the log file and points logging back at
// stderr.
func closeLogger() {
	if logFile == nil {
		return
	}
	logFile.Sync()
	logFile.Close()
	logFile = nil

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
}

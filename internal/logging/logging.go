package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "server.log"
	logMaxSizeMB  = 50
	logMaxBackups = 5
	logMaxAgeDays = 28
)

// NewLogger builds the process-wide slog logger: tinted console output, plus
// a rotated log file when a directory is configured.
func NewLogger(level, dir string) (*slog.Logger, error) {
	parsed := parseLevel(level)

	dir = strings.TrimSpace(dir)
	if dir == "" {
		logger := newLogger(os.Stdout, parsed, false)
		slog.SetDefault(logger)
		return logger, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}

	logger := newLogger(io.MultiWriter(os.Stdout, logFile), parsed, true)
	slog.SetDefault(logger)
	logger.Info("file logging enabled", "path", logFile.Filename)
	return logger, nil
}

func newLogger(writer io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

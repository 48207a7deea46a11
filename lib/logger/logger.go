package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger builds the process logger; it exits on an unknown environment
// or an unwritable log file.
func SetupLogger(env, logPath string) *slog.Logger {
	handler, err := NewHandler(env, logPath)
	if err != nil {
		log.Fatal(err)
	}
	if env != envLocal {
		log.Printf("env: %s; log file: %s", env, logPath)
	}
	return slog.New(handler)
}

// NewHandler returns a text handler: stdout at debug for local, the log file
// at debug for dev and at info for prod.
func NewHandler(env, logPath string) (slog.Handler, error) {
	var level slog.Level
	switch env {
	case envLocal:
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}), nil
	case envDev:
		level = slog.LevelDebug
	case envProd:
		level = slog.LevelInfo
	default:
		return nil, fmt.Errorf("invalid environment: %s", env)
	}

	w, err := openLogFile(logPath)
	if err != nil {
		return nil, err
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), nil
}

func openLogFile(logPath string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return logFile, nil
}

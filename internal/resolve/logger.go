package resolve

import (
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aldendirks/mycotool/internal/logging"
)

// Package-level logger for resolution runs
var (
	logger         *slog.Logger
	loggerInitOnce sync.Once
	levelVar       = new(slog.LevelVar) // Dynamic level control
	closeLogger    func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "resolve.log")
	initialLevel := slog.LevelInfo // Default to Info level
	levelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "resolve", levelVar)
	if err != nil {
		// Fallback: Log error to standard log and use console logging
		log.Printf("Failed to initialize resolve file logger at %s: %v. Using console logging.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: levelVar})
		logger = slog.New(fbHandler).With("service", "resolve")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// GetLogger returns the package logger so callers can attach run context to
// the same log stream. Thread-safe initialization is guaranteed through
// sync.Once.
func GetLogger() *slog.Logger {
	loggerInitOnce.Do(func() {
		if logger == nil {
			logger = slog.Default().With("service", "resolve")
		}
	})
	return logger
}

// CloseLogger closes the log file and releases resources
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

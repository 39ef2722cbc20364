// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging setup for Aleutian services.
//
// Services log JSON to stdout so container log collectors can scrape
// them; file logging is available for bare-metal runs via LOG_DIR. The
// package is a thin layer over the standard library slog package: it
// resolves the level and destinations once at startup and installs the
// result as the slog default, so the rest of the codebase logs through
// plain slog calls.
//
// # Basic Usage
//
//	logger, closeFn := logging.Setup(logging.Config{Service: "reasoner"})
//	defer closeFn()
//	logger.Info("starting", "port", port)
//
// # Security Considerations
//
// This package does NOT redact sensitive data. Callers must ensure
// tokens and document contents are not logged:
//
//	// BAD: logs sensitive data
//	logger.Info("auth", "token", authToken)
//
//	// GOOD: log metadata only
//	logger.Info("auth", "token_present", authToken != "")
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Configuration
// =============================================================================

// Config controls logger construction.
//
// Zero values are usable: Setup defaults to info-level JSON on stdout.
type Config struct {
	// Level is the minimum severity to emit: "debug", "info", "warn",
	// or "error". Empty falls back to the LOG_LEVEL env var, then "info".
	Level string

	// Service names the component in log file names and the "service"
	// attribute attached to every record.
	Service string

	// LogDir, when set, additionally writes JSON logs to a dated file
	// {service}_{date}.log inside the directory. Empty falls back to
	// the LOG_DIR env var; when both are empty no file is written.
	LogDir string
}

// ParseLevel maps a level name to its slog level. Unknown names map to
// info so a typo in LOG_LEVEL never silences errors.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// =============================================================================
// Setup
// =============================================================================

// Setup builds the service logger, installs it as the slog default,
// and returns it with a close function for the optional log file.
//
// The close function is always non-nil and safe to defer.
func Setup(cfg Config) (*slog.Logger, func()) {
	level := cfg.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = os.Getenv("LOG_DIR")
	}

	writers := []io.Writer{os.Stdout}
	closeFn := func() {}

	if logDir != "" {
		file, err := openLogFile(logDir, cfg.Service)
		if err != nil {
			// stdout logging still works; report and carry on
			fmt.Fprintf(os.Stderr, "logging: file output disabled: %v\n", err)
		} else {
			writers = append(writers, file)
			closeFn = func() { _ = file.Close() }
		}
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: ParseLevel(level),
	})

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	slog.SetDefault(logger)
	return logger, closeFn
}

// openLogFile creates the log directory if needed and opens the dated
// log file for appending. Supports ~ expansion in the directory path.
func openLogFile(dir, service string) (*os.File, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not expand ~ in log dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create log dir %s: %w", dir, err)
	}
	if service == "" {
		service = "aleutian"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().UTC().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

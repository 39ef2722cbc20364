// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"  info  ", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupWritesServiceAttribute(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_DIR", "")

	logger, closeFn := Setup(Config{Service: "reasoner", LogDir: dir})
	logger.Info("hello", "key", "value")
	closeFn()

	data := readLogFile(t, dir, "reasoner")
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if record["service"] != "reasoner" {
		t.Errorf("service = %v, want reasoner", record["service"])
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("key = %v, want value", record["key"])
	}
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn := Setup(Config{Service: "reasoner", Level: "warn", LogDir: dir})
	logger.Info("dropped")
	logger.Warn("kept")
	closeFn()

	data := readLogFile(t, dir, "reasoner")
	if strings.Contains(string(data), "dropped") {
		t.Error("info record should have been filtered at warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn record should have been written")
	}
}

func TestSetupSurvivesUnwritableLogDir(t *testing.T) {
	logger, closeFn := Setup(Config{Service: "reasoner", LogDir: "/proc/definitely/not/writable"})
	defer closeFn()
	// stdout handler still installed; must not panic
	logger.Info("still alive")
}

func readLogFile(t *testing.T, dir, service string) []byte {
	t.Helper()
	name := service + "_" + time.Now().UTC().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("could not read log file: %v", err)
	}
	// first line only
	if i := strings.IndexByte(string(data), '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

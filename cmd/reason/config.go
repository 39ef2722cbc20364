// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's connection settings and request defaults.
//
// Resolution order, later entries win:
//  1. built-in defaults
//  2. ~/.aleutian/reason.yaml
//  3. REASONER_URL / REASONER_API_TOKEN environment variables
//  4. command-line flags
type Config struct {
	ServerURL string `yaml:"server_url"`
	APIToken  string `yaml:"api_token"`
	Model     string `yaml:"model"`
	Samples   int    `yaml:"samples"`
	Steps     int    `yaml:"steps"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:12230",
		Model:     "fast",
	}
}

// LoadConfig reads ~/.aleutian/reason.yaml if present and applies
// environment overrides. A missing or unreadable config file is not an
// error; the defaults carry the CLI.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if path := configPath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// a malformed file falls back to defaults rather than
			// blocking every command
			_ = yaml.Unmarshal(data, &cfg)
		}
	}

	if v := os.Getenv("REASONER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("REASONER_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultConfig().ServerURL
	}
	return cfg
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aleutian", "reason.yaml")
}

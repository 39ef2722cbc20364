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
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("REASONER_URL", "")
	t.Setenv("REASONER_API_TOKEN", "")

	cfg := LoadConfig()
	if cfg.ServerURL != "http://localhost:12230" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.Model != "fast" {
		t.Errorf("Model = %q, want fast", cfg.Model)
	}
	if cfg.APIToken != "" {
		t.Errorf("APIToken = %q, want empty", cfg.APIToken)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("REASONER_URL", "")
	t.Setenv("REASONER_API_TOKEN", "")

	dir := filepath.Join(home, ".aleutian")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := []byte("server_url: http://reasoner:12230\napi_token: from-file\nmodel: slow\nsamples: 7\n")
	if err := os.WriteFile(filepath.Join(dir, "reason.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if cfg.ServerURL != "http://reasoner:12230" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.APIToken != "from-file" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.Model != "slow" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Samples != 7 {
		t.Errorf("Samples = %d", cfg.Samples)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".aleutian")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := []byte("server_url: http://from-file:12230\napi_token: from-file\n")
	if err := os.WriteFile(filepath.Join(dir, "reason.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REASONER_URL", "http://from-env:12230")
	t.Setenv("REASONER_API_TOKEN", "from-env")

	cfg := LoadConfig()
	if cfg.ServerURL != "http://from-env:12230" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}
	if cfg.APIToken != "from-env" {
		t.Errorf("APIToken = %q, want env override", cfg.APIToken)
	}
}

func TestLoadConfigIgnoresMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("REASONER_URL", "")
	t.Setenv("REASONER_API_TOKEN", "")

	dir := filepath.Join(home, ".aleutian")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reason.yaml"), []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if cfg.ServerURL != "http://localhost:12230" {
		t.Errorf("ServerURL = %q, want default after malformed file", cfg.ServerURL)
	}
}

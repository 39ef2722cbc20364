// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel defines the verbosity and richness of CLI output.
type PersonalityLevel string

const (
	// PersonalityStandard uses colors, icons and boxes.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal uses icons and basic formatting only.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs plain text suitable for scripting.
	PersonalityMachine PersonalityLevel = "machine"
)

var (
	personalityMu      sync.RWMutex
	currentPersonality = detectPersonality()
)

// GetPersonality returns the active output personality.
func GetPersonality() PersonalityLevel {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentPersonality
}

// SetPersonality overrides the detected personality, e.g. from a
// --output flag.
func SetPersonality(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality = level
}

// ParsePersonalityLevel converts a string to a PersonalityLevel,
// defaulting to standard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch s {
	case "minimal":
		return PersonalityMinimal
	case "machine", "plain":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// detectPersonality picks a default from the environment: explicit
// ALEUTIAN_PERSONALITY wins, then NO_COLOR, then whether stdout is a
// terminal at all.
func detectPersonality() PersonalityLevel {
	if env := os.Getenv("ALEUTIAN_PERSONALITY"); env != "" {
		return ParsePersonalityLevel(env)
	}
	if os.Getenv("NO_COLOR") != "" {
		return PersonalityMinimal
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return PersonalityMachine
	}
	return PersonalityStandard
}

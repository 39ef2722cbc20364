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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianReason/pkg/ux"
)

// --- Global Command Variables ---
var (
	serverURL        string
	personalityLevel string // UX personality level (standard/minimal/machine)

	cliConfig Config

	rootCmd = &cobra.Command{
		Use:   "reason",
		Short: "A cli for the Aleutian reasoning aggregation service",
		Long: `Reason asks a question through the Aleutian reasoning service,
which answers by sampling several independent chain-of-thought paths,
voting across them, and reflecting on the result.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if personalityLevel != "" {
				ux.SetPersonality(ux.ParsePersonalityLevel(personalityLevel))
			}
			cliConfig = LoadConfig()
			if serverURL != "" {
				cliConfig.ServerURL = serverURL
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Reasoner service base URL (overrides config and REASONER_URL)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "output", "",
		"Output style: standard, minimal, or machine")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

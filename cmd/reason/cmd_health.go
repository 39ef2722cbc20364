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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianReason/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	healthJSONOutput bool // Output as JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// healthCmd reports whether the reasoner service is up and which model
// tiers it is serving.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the reasoner service health",
	Long: `Checks whether the reasoner service is reachable and reports
the configured LLM backend and model tiers.

Examples:
  reason health
  reason health --json`,
	Run: runHealthCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	healthCmd.Flags().BoolVar(&healthJSONOutput, "json", false,
		"Output as JSON for scripting")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runHealthCommand(cmd *cobra.Command, args []string) {
	client := newServiceClient(cliConfig, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := client.Health(ctx)
	if err != nil {
		ux.Error(fmt.Sprintf("service unreachable: %v", err))
		os.Exit(1)
	}

	if healthJSONOutput {
		data, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(data))
		return
	}

	ux.Success(fmt.Sprintf("reasoner is %s at %s", status.Status, cliConfig.ServerURL))
	ux.Info("backend: " + status.Backend)
	ux.Info("models:  " + formatModels(status.Models))
}

// formatModels renders the tier→model map in stable order.
func formatModels(models map[string]string) string {
	pairs := make([]string, 0, len(models))
	for tier, model := range models {
		pairs = append(pairs, tier+": "+model)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianReason/pkg/ux"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	askSamples     int     // Independent reasoning paths to sample
	askSteps       int     // Chain-of-thought steps per path
	askModel       string  // Model tier: fast or slow
	askTemperature float32 // Sampling temperature
	askTimeout     int     // Server-side deadline in seconds
	askSystem      string  // System prompt override
	askDocPath     string  // Document file to attach as context
	askShowPaths   bool    // Print each reasoning path
	askJSONOutput  bool    // Output raw JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// askCmd submits a question to the reasoning service.
//
// # Description
//
// Sends the question through the self-consistency pipeline: the service
// samples several independent chain-of-thought paths, votes across their
// final answers, runs a reflection pass over the winning group, and
// returns the aggregate with confidence, token usage, and cost.
//
// # Examples
//
//	reason ask "What is 12.5% of 240?"
//	reason ask --samples 7 --steps 4 "Why is the sky blue?"
//	reason ask --model slow --doc report.pdf "Summarize the key risks"
//	reason ask --json "..." | jq .final_answer
//
// # Limitations
//
//   - Text files attach as extracted text; anything else is sent
//     base64-encoded and requires the extractor service to be deployed
//
// # Assumptions
//
//   - The reasoner service is reachable at the configured server URL
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question through the reasoning aggregation pipeline",
	Long: `Submits a question to the reasoner service.

The service answers by sampling several independent chain-of-thought
paths, voting across their final answers by semantic equivalence, and
refining the majority answer with a reflection pass.

Examples:
  reason ask "What is the capital of Australia?"
  reason ask --samples 7 --steps 4 "Why is the sky blue?"
  reason ask --model slow --show-paths "Prove that sqrt(2) is irrational"
  reason ask --doc notes.txt "What deadlines does this document mention?"`,
	Args: cobra.ExactArgs(1),
	Run:  runAskCommand,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	askCmd.Flags().IntVarP(&askSamples, "samples", "k", 0,
		"Number of independent reasoning paths (1-15, default from server)")
	askCmd.Flags().IntVarP(&askSteps, "steps", "n", 0,
		"Chain-of-thought steps per path (1-10, default from server)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "",
		"Model tier: fast or slow")
	askCmd.Flags().Float32VarP(&askTemperature, "temperature", "t", -1,
		"Sampling temperature (0.0-2.0)")
	askCmd.Flags().IntVar(&askTimeout, "timeout", 0,
		"Server-side deadline in seconds (0 uses the server default)")
	askCmd.Flags().StringVar(&askSystem, "system", "",
		"System prompt threaded into every model call")
	askCmd.Flags().StringVar(&askDocPath, "doc", "",
		"Path to a document to attach as context")
	askCmd.Flags().BoolVar(&askShowPaths, "show-paths", false,
		"Print every reasoning path, not just the aggregate")
	askCmd.Flags().BoolVar(&askJSONOutput, "json", false,
		"Output the raw JSON response")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runAskCommand(cmd *cobra.Command, args []string) {
	req, err := buildAskRequest(args[0])
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	// Give the client more rope than the server deadline so the server's
	// own timeout response wins the race.
	clientTimeout := 5 * time.Minute
	if askTimeout > 0 {
		clientTimeout = time.Duration(askTimeout+30) * time.Second
	}

	client := newServiceClient(cliConfig, clientTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	if !askJSONOutput {
		ux.Muted(fmt.Sprintf("Reasoning via %s ...", cliConfig.ServerURL))
	}

	resp, err := client.Ask(ctx, req)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if askJSONOutput {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			ux.Error(err.Error())
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Println(ux.RenderAggregation(resp, askShowPaths))
}

// buildAskRequest translates flags into the request body. Zero values
// are left for the server to default.
func buildAskRequest(question string) (*datatypes.AggregationRequest, error) {
	req := &datatypes.AggregationRequest{
		Prompt:         question,
		SystemPrompt:   askSystem,
		Model:          askModel,
		TimeoutSeconds: askTimeout,
	}
	if req.Model == "" {
		req.Model = cliConfig.Model
	}
	// Unset knobs stay nil so the server applies its own defaults.
	if samples := pickKnob(askSamples, cliConfig.Samples); samples != nil {
		req.NumSamples = samples
	}
	if steps := pickKnob(askSteps, cliConfig.Steps); steps != nil {
		req.NumSteps = steps
	}
	if askTemperature >= 0 {
		temp := askTemperature
		req.Temperature = &temp
	}

	if askDocPath != "" {
		if err := attachDocument(req, askDocPath); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// pickKnob resolves a pipeline knob from the flag value, then the
// config file. Returns nil when neither is set.
func pickKnob(flagValue, configValue int) *int {
	if flagValue != 0 {
		return &flagValue
	}
	if configValue != 0 {
		return &configValue
	}
	return nil
}

// attachDocument loads the file at path into the request. Plain text
// goes in document_text directly; binary formats are base64-encoded for
// the extractor service.
func attachDocument(req *datatypes.AggregationRequest, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the document %s: %w", path, err)
	}
	if isPlainText(path) {
		req.DocumentText = string(data)
		return nil
	}
	req.DocumentB64 = base64.StdEncoding.EncodeToString(data)
	return nil
}

func isPlainText(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".txt", ".md", ".csv", ".log", ".json", ".yaml", ".yml"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

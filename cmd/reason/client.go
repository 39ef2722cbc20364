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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// serviceClient talks to the reasoner service's HTTP API on behalf of
// the CLI. It carries the base URL and optional bearer token resolved
// from config.
type serviceClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newServiceClient(cfg Config, timeout time.Duration) *serviceClient {
	return &serviceClient{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// Ask submits an aggregation request and returns the composed result.
func (c *serviceClient) Ask(ctx context.Context, req *datatypes.AggregationRequest) (*datatypes.AggregationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode the request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serviceError(resp)
	}

	var out datatypes.AggregationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode the response: %w", err)
	}
	return &out, nil
}

// HealthStatus is the /health payload shape: models maps each tier
// name to the concrete model serving it.
type HealthStatus struct {
	Status  string            `json:"status"`
	Backend string            `json:"backend"`
	Models  map[string]string `json:"models"`
}

// Health fetches the service health report.
func (c *serviceClient) Health(ctx context.Context) (*HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serviceError(resp)
	}

	var out HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode the response: %w", err)
	}
	return &out, nil
}

func (c *serviceClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// serviceError turns a non-200 response into an error carrying the
// service's own error message when one is present.
func serviceError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

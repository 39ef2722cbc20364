// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package docs turns uploaded documents into prompt-ready context text.
//
// Binary documents (PDF and friends) go through the extractor sidecar
// service; the resulting plain text is then trimmed to a context budget
// before it is prepended to the reasoning prompt.
package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ExtractedDocument is the normalized output of one extraction.
type ExtractedDocument struct {
	Text      string   `json:"text"`
	PageCount int      `json:"page_count"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Extractor converts base64 document payloads to plain text. The HTTP
// implementation talks to the extractor sidecar; tests substitute stubs.
type Extractor interface {
	Extract(ctx context.Context, documentB64 string) (*ExtractedDocument, error)
}

// HTTPExtractor calls the document extractor service.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExtractorFromEnv reads DOC_EXTRACTOR_URL. An empty value means
// no extractor is deployed; callers should reject document_b64 uploads.
func NewHTTPExtractorFromEnv() *HTTPExtractor {
	baseURL := strings.Trim(os.Getenv("DOC_EXTRACTOR_URL"), "\"' ")
	if baseURL == "" {
		return nil
	}
	return NewHTTPExtractor(baseURL)
}

// NewHTTPExtractor builds an extractor client for the given base URL.
func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type extractRequest struct {
	DocumentB64 string `json:"document_b64"`
}

// Extract posts the document to the extractor's /extract endpoint.
func (e *HTTPExtractor) Extract(ctx context.Context, documentB64 string) (*ExtractedDocument, error) {
	body, err := json.Marshal(extractRequest{DocumentB64: documentB64})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/extract", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extractor service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out ExtractedDocument
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode extractor response: %w", err)
	}
	return &out, nil
}

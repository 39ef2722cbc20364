// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the reasoner.
//
// # Description
//
// This package implements Prometheus metrics for monitoring reasoning
// aggregation operations. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Token usage and cost (by model tier)
//   - Latency histograms (sample phase, end-to-end duration)
//   - Sample success/failure counters and agreement distribution
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for reasoning metrics
const reasonerSubsystem = "reasoner"

// ReasonerMetrics holds all Prometheus metrics for aggregation operations.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring aggregation
// throughput, reliability, and spend. Initialize once at startup via
// InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type ReasonerMetrics struct {
	// RequestsTotal counts aggregation requests by endpoint and status.
	// Labels: endpoint (completions, chat), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// TokensTotal counts tokens processed by direction and model.
	// Labels: direction (input, output), model
	TokensTotal *prometheus.CounterVec

	// CostTotal accumulates estimated spend by model tier, in currency units.
	// Labels: tier (fast, slow)
	CostTotal *prometheus.CounterVec

	// SamplesTotal counts reasoning paths by outcome.
	// Labels: outcome (completed, failed)
	SamplesTotal *prometheus.CounterVec

	// AgreementRatio observes the winning-group share per request, 0-1.
	AgreementRatio prometheus.Histogram

	// RequestDurationSeconds measures end-to-end aggregation duration.
	// Labels: endpoint, status (success, error)
	RequestDurationSeconds *prometheus.HistogramVec

	// ActiveRequests tracks currently running aggregations.
	ActiveRequests prometheus.Gauge

	// ErrorsTotal counts errors by type and endpoint.
	// Labels: endpoint, error_code (validation, provider_error, timeout, etc.)
	ErrorsTotal *prometheus.CounterVec

	// ReflectionsSkippedTotal counts reflection passes that were absorbed
	// after a failure.
	ReflectionsSkippedTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of ReasonerMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *ReasonerMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *ReasonerMetrics {
	DefaultMetrics = &ReasonerMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "requests_total",
				Help:      "Total number of aggregation requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		TokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "tokens_total",
				Help:      "Total tokens processed by direction and model",
			},
			[]string{"direction", "model"},
		),

		CostTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "cost_total",
				Help:      "Estimated spend by model tier in currency units",
			},
			[]string{"tier"},
		),

		SamplesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "samples_total",
				Help:      "Total reasoning paths by outcome",
			},
			[]string{"outcome"},
		),

		AgreementRatio: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "agreement_ratio",
				Help:      "Winning-group share of successful samples per request",
				Buckets:   []float64{0.2, 0.4, 0.5, 0.6, 0.8, 0.9, 1.0},
			},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end aggregation duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"endpoint", "status"},
		),

		ActiveRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "active_requests",
				Help:      "Number of currently running aggregations",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "errors_total",
				Help:      "Total aggregation errors by type and endpoint",
			},
			[]string{"endpoint", "error_code"},
		),

		ReflectionsSkippedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reasonerSubsystem,
				Name:      "reflections_skipped_total",
				Help:      "Reflection passes absorbed after a failure",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeProvider indicates an LLM backend failure.
	ErrorCodeProvider ErrorCode = "provider_error"

	// ErrorCodeTimeout indicates the request deadline expired.
	ErrorCodeTimeout ErrorCode = "timeout"

	// ErrorCodeAggregation indicates too few samples survived to vote.
	ErrorCodeAggregation ErrorCode = "aggregation"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents a serving endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointCompletions is the aggregation completion endpoint.
	EndpointCompletions Endpoint = "completions"

	// EndpointChat is the chat-shaped compatibility endpoint.
	EndpointChat Endpoint = "chat"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed aggregation request.
func (m *ReasonerMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a categorized request error.
func (m *ReasonerMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordTokens records token usage for a model.
func (m *ReasonerMetrics) RecordTokens(inputTokens, outputTokens int, model string) {
	m.TokensTotal.WithLabelValues("input", model).Add(float64(inputTokens))
	m.TokensTotal.WithLabelValues("output", model).Add(float64(outputTokens))
}

// RecordCost accumulates estimated spend for a tier.
func (m *ReasonerMetrics) RecordCost(tier string, amount float64) {
	m.CostTotal.WithLabelValues(tier).Add(amount)
}

// RecordSamples records path outcomes for one request.
func (m *ReasonerMetrics) RecordSamples(completed, failed int) {
	m.SamplesTotal.WithLabelValues("completed").Add(float64(completed))
	m.SamplesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordAgreement observes the agreement ratio of one request, 0-1.
func (m *ReasonerMetrics) RecordAgreement(ratio float64) {
	m.AgreementRatio.Observe(ratio)
}

// RecordDuration records the end-to-end duration of one request.
func (m *ReasonerMetrics) RecordDuration(endpoint Endpoint, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestDurationSeconds.WithLabelValues(string(endpoint), status).Observe(seconds)
}

// RequestStarted increments the active request gauge.
func (m *ReasonerMetrics) RequestStarted() {
	m.ActiveRequests.Inc()
}

// RequestEnded decrements the active request gauge.
func (m *ReasonerMetrics) RequestEnded() {
	m.ActiveRequests.Dec()
}

// RecordReflectionSkipped increments the skipped reflection counter.
func (m *ReasonerMetrics) RecordReflectionSkipped() {
	m.ReflectionsSkippedTotal.Inc()
}

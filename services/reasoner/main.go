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
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianReason/pkg/extensions"
	"github.com/AleutianAI/AleutianReason/pkg/logging"
	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/docs"
	"github.com/AleutianAI/AleutianReason/services/reasoner/engine"
	"github.com/AleutianAI/AleutianReason/services/reasoner/handlers"
	"github.com/AleutianAI/AleutianReason/services/reasoner/observability"
	"github.com/AleutianAI/AleutianReason/services/reasoner/pricing"
	"github.com/AleutianAI/AleutianReason/services/reasoner/routes"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("reasoner-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// loadPricing returns the price table, optionally backed by a JSON file
// with hot reload.
func loadPricing(ctx context.Context) *pricing.Table {
	path := os.Getenv("PRICING_CONFIG_PATH")
	if path == "" {
		slog.Info("PRICING_CONFIG_PATH not set, using built-in price table")
		return pricing.DefaultTable()
	}

	table, err := pricing.LoadFile(path)
	if err != nil {
		slog.Error("Failed to load pricing config, using built-in price table",
			"path", path, "error", err)
		return pricing.DefaultTable()
	}

	watcher, err := pricing.NewWatcher(path, table)
	if err != nil {
		slog.Warn("Pricing hot reload unavailable", "path", path, "error", err)
		return table
	}
	go watcher.Start(ctx)
	slog.Info("Pricing table loaded with hot reload", "path", path)
	return table
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("Invalid integer env var, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func main() {
	port := os.Getenv("REASONER_PORT")
	if port == "" {
		port = "12230"
	}

	_, closeLogs := logging.Setup(logging.Config{Service: "reasoner"})
	defer closeLogs()

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	log.Println("Configuring the LLM Client")
	client, err := llm.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	slog.Info("Using LLM backend", "backend", client.Name())

	tiers := llm.NewTierRegistryFromEnv()
	if client.Name() == "ollama" {
		// Preload tier models so the first fan-out burst is not serialized
		// behind model loads.
		warmCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		tiers.WarmTiers(warmCtx, os.Getenv("OLLAMA_BASE_URL"))
		cancel()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	prices := loadPricing(ctx)
	metrics := observability.InitMetrics()

	eng := engine.NewEngine(client, tiers, prices, engine.Options{
		MaxConcurrent:  envInt("REASONER_MAX_CONCURRENT", 5),
		MinSamples:     envInt("REASONER_MIN_SAMPLES", 1),
		DefaultTimeout: time.Duration(envInt("REASONER_TIMEOUT_SECONDS", 120)) * time.Second,
	})

	opts := extensions.DefaultOptions()
	tokenProvider, err := extensions.NewTokenAuthProviderFromEnv()
	if err != nil {
		log.Fatalf("Failed to read API token: %v", err)
	}
	if tokenProvider != nil {
		opts = opts.WithAuth(tokenProvider).WithAudit(&extensions.SlogAuditLogger{})
		slog.Info("API token authentication enabled")
	}

	var extractor docs.Extractor
	if httpExtractor := docs.NewHTTPExtractorFromEnv(); httpExtractor != nil {
		extractor = httpExtractor
		slog.Info("Document extractor configured")
	} else {
		slog.Info("DOC_EXTRACTOR_URL not set, document_b64 uploads disabled")
	}

	deps := handlers.Deps{
		Engine:    eng,
		Extractor: extractor,
		Metrics:   metrics,
		Audit:     opts.AuditLogger,
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("reasoner-service"))

	routes.SetupRoutes(router, deps, opts, client.Name(), tiers)

	log.Println("Starting the reasoner server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

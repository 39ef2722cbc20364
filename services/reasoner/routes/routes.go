// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianReason/pkg/extensions"
	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/handlers"
	"github.com/AleutianAI/AleutianReason/services/reasoner/middleware"
)

func SetupRoutes(router *gin.Engine, deps handlers.Deps, opts extensions.ServiceOptions,
	backendName string, tiers *llm.TierRegistry) {

	router.GET("/health", handlers.HealthCheck(backendName, tiers))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(opts.AuthProvider))
	{
		v1.POST("/completions", handlers.HandleCompletions(deps))
		v1.POST("/chat/completions", handlers.HandleChatCompletions(deps))
	}
}

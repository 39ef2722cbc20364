// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the reasoner service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it using the configured AuthProvider, and stores the
// resulting AuthInfo in the Gin context for downstream handlers.
//
// With the default NopAuthProvider every request is authenticated as
// "local-user"; deployments set REASONER_API_TOKEN to require a
// pre-shared token instead.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianReason/pkg/extensions"
)

// authInfoKey is the context key for storing AuthInfo.
const authInfoKey = "aleutian_auth_info"

// SetAuthInfo stores the authenticated user info in the Gin context.
// Called by AuthMiddleware after successful authentication.
func SetAuthInfo(c *gin.Context, info *extensions.AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated user info from the Gin
// context, or nil when the request was not authenticated.
func GetAuthInfo(c *gin.Context) *extensions.AuthInfo {
	if info, exists := c.Get(authInfoKey); exists {
		if authInfo, ok := info.(*extensions.AuthInfo); ok {
			return authInfo
		}
	}
	return nil
}

// AuthMiddleware creates a Gin middleware that authenticates requests.
//
// # Description
//
// Extracts the bearer token from the Authorization header, validates it
// with the provider, and stores the AuthInfo for handlers. A missing or
// malformed header validates as the empty token, which NopAuthProvider
// accepts and TokenAuthProvider rejects.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func AuthMiddleware(provider extensions.AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		authInfo, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, extensions.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "unauthorized",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication failed",
			})
			return
		}

		SetAuthInfo(c, authInfo)
		c.Next()
	}
}

// extractBearerToken parses "Authorization: Bearer <token>", returning
// the empty string when the header is missing or malformed. The scheme
// is case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

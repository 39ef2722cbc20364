// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnauthorized is returned when authentication fails. Implementations
// should wrap this error with additional context:
//
//	return nil, fmt.Errorf("invalid token format: %w", extensions.ErrUnauthorized)
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo contains identity information returned after successful
// authentication. UserID is always populated; the rest may be empty.
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	UserID string

	// Email is the user's email address, when the provider knows it.
	Email string

	// Roles contains role memberships for authorization decisions.
	Roles []string
}

// HasRole checks if the user has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates authentication tokens and returns user identity.
//
// # Open Source Behavior
//
// The default NopAuthProvider always returns a valid "local-user" with
// admin privileges, so the service runs without any authentication
// infrastructure. Hosted deployments use TokenAuthProvider or inject a
// provider backed by a real identity system.
type AuthProvider interface {
	// Validate checks a bearer token and returns the caller's identity.
	// Returns ErrUnauthorized (or a wrap of it) when the token is invalid.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// NopAuthProvider is the default authentication provider for open source
// deployments. Every request, including tokenless ones, is accepted as
// the local admin user.
type NopAuthProvider struct{}

// Validate always succeeds with a local admin identity.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID: "local-user",
		Roles:  []string{"admin"},
	}, nil
}

// TokenAuthProvider accepts exactly one pre-shared API token. Comparison
// is constant time.
type TokenAuthProvider struct {
	token string
}

// NewTokenAuthProviderFromEnv reads REASONER_API_TOKEN, falling back to
// the container secret mount. Returns nil when no token is configured;
// callers should then use NopAuthProvider.
func NewTokenAuthProviderFromEnv() (*TokenAuthProvider, error) {
	token := strings.TrimSpace(os.Getenv("REASONER_API_TOKEN"))
	if token == "" {
		if data, err := os.ReadFile("/run/secrets/reasoner_api_token"); err == nil {
			token = strings.TrimSpace(string(data))
		}
	}
	if token == "" {
		return nil, nil
	}
	return &TokenAuthProvider{token: token}, nil
}

// Validate compares the presented token against the configured one.
func (p *TokenAuthProvider) Validate(_ context.Context, token string) (*AuthInfo, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(p.token)) != 1 {
		return nil, fmt.Errorf("token mismatch: %w", ErrUnauthorized)
	}
	return &AuthInfo{
		UserID: "api-client",
		Roles:  []string{"caller"},
	}, nil
}

// Compile-time interface checks.
var (
	_ AuthProvider = (*NopAuthProvider)(nil)
	_ AuthProvider = (*TokenAuthProvider)(nil)
)

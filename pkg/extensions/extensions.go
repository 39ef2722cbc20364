// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the service's pluggable seams.
//
// The open source build runs with no-op defaults: every request is
// authenticated as a local user and audit events are discarded. Hosted
// deployments inject real implementations via ServiceOptions without any
// change to the core packages.
//
//   - auth.go: token validation (AuthProvider)
//   - audit.go: security event logging (AuditLogger)
//
// All implementations must be safe for concurrent use.
package extensions

// ServiceOptions groups all extension points for service configuration.
// All fields are optional; nil values are replaced with no-op defaults
// by DefaultOptions().
type ServiceOptions struct {
	// AuthProvider validates authentication tokens.
	// Default: NopAuthProvider (always returns a valid local user)
	AuthProvider AuthProvider

	// AuditLogger records security-relevant events.
	// Default: NopAuditLogger (discards all events)
	AuditLogger AuditLogger
}

// DefaultOptions returns ServiceOptions with no-op defaults. This is the
// configuration used by the open source version.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider: &NopAuthProvider{},
		AuditLogger:  &NopAuditLogger{},
	}
}

// WithAuth returns a copy of opts with the given AuthProvider.
func (opts ServiceOptions) WithAuth(provider AuthProvider) ServiceOptions {
	opts.AuthProvider = provider
	return opts
}

// WithAudit returns a copy of opts with the given AuditLogger.
func (opts ServiceOptions) WithAudit(logger AuditLogger) ServiceOptions {
	opts.AuditLogger = logger
	return opts
}

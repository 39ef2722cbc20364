// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent records one security-relevant action for compliance trails.
type AuditEvent struct {
	// Timestamp is when the event occurred (UTC).
	Timestamp time.Time

	// UserID identifies the actor. Matches AuthInfo.UserID.
	UserID string

	// Action names what happened, e.g. "aggregation.run", "auth.denied".
	Action string

	// RequestID correlates the event with request logs and traces.
	RequestID string

	// Outcome is "success" or "error".
	Outcome string
}

// AuditLogger records security-relevant events. Implementations must not
// block request handling; slow sinks should buffer internally.
type AuditLogger interface {
	Record(ctx context.Context, event AuditEvent)
}

// NopAuditLogger discards all events. The open source default.
type NopAuditLogger struct{}

func (l *NopAuditLogger) Record(_ context.Context, _ AuditEvent) {}

// SlogAuditLogger writes audit events to the process log as structured
// records. Useful for single-node deployments without a SIEM.
type SlogAuditLogger struct{}

func (l *SlogAuditLogger) Record(_ context.Context, event AuditEvent) {
	slog.Info("audit event",
		"audit_timestamp", event.Timestamp.UTC().Format(time.RFC3339),
		"user_id", event.UserID,
		"action", event.Action,
		"request_id", event.RequestID,
		"outcome", event.Outcome)
}

var (
	_ AuditLogger = (*NopAuditLogger)(nil)
	_ AuditLogger = (*SlogAuditLogger)(nil)
)
